// Package surreal provides the document implementation of
// [github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store.Store] using
// native SurrealQL through the SurrealDB SDK.
//
// The connection is configured with the surrealcbor codec so time.Time and
// the typed IDs marshal to SurrealDB's native datetime and RecordID formats.
// Foreign key fields are stored as RecordIDs (automatic via the typed IDs'
// MarshalCBOR) and queried with parameterized WHERE clauses; direct
// entitlements live as RecordID arrays on the account document.
//
// SurrealDB creates tables lazily, so Migrate only defines the two unique
// indexes the platform depends on: account email and the certification
// (account, topic) pair. Index violations surface as query errors whose
// message names the index; those are mapped to store.ErrConflict.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// SurrealStore implements the Store interface using SurrealDB.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// NewSurrealStore connects to SurrealDB over WebSocket with the surrealcbor
// codec and returns the document store.
func NewSurrealStore(wsURL, namespace, database, username, password string) (*SurrealStore, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// surrealcbor gives correct time.Time and RecordID marshaling; the
	// default codec does not.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{
		db:       db,
		ns:       namespace,
		database: database,
	}, nil
}

func (s *SurrealStore) Backend() store.Backend { return store.BackendDocument }

// Migrate defines the unique indexes that back the platform's uniqueness
// invariants. Tables themselves are created lazily on first insert.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	stmts := []string{
		"DEFINE INDEX IF NOT EXISTS idx_accounts_email ON TABLE accounts COLUMNS email UNIQUE",
		"DEFINE INDEX IF NOT EXISTS idx_certifications_account_topic ON TABLE certifications COLUMNS account_id, topic_id UNIQUE",
	}
	for _, stmt := range stmts {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return fmt.Errorf("failed to define index: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps the SDK's empty-result errors to a nil record.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// translateErr maps unique-index violations onto the store taxonomy.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "already contains") {
		return fmt.Errorf("%w: %s", store.ErrConflict, err)
	}
	return err
}

// firstOf unwraps the first row of the first statement result of a query.
func firstOf[T any](result *[]surrealdb.QueryResult[[]T]) *T {
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return nil
	}
	return &(*result)[0].Result[0]
}

// sliceOf unwraps all rows of the first statement result of a query.
func sliceOf[T any](result *[]surrealdb.QueryResult[[]*T]) []*T {
	if result == nil || len(*result) == 0 {
		return nil
	}
	return (*result)[0].Result
}

// Account operations

func (s *SurrealStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = models.NewAccountID()
	}
	account.Email = models.NormalizeEmail(account.Email)
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.Account](ctx, s.db, "accounts", account)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *SurrealStore) GetAccount(ctx context.Context, id models.AccountID) (*models.Account, error) {
	account, err := surrealdb.Select[models.Account](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *SurrealStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := "SELECT * FROM accounts WHERE email = $email LIMIT 1"
	params := map[string]any{
		"email": models.NormalizeEmail(email),
	}
	result, err := surrealdb.Query[[]models.Account](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return firstOf(result), nil
}

func (s *SurrealStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	account.Email = models.NormalizeEmail(account.Email)
	account.UpdatedAt = time.Now()
	_, err := surrealdb.Update[models.Account](ctx, s.db, account.ID.RecordID(), account)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *SurrealStore) DeleteAccount(ctx context.Context, id models.AccountID) error {
	_, err := surrealdb.Delete[models.Account](ctx, s.db, id.RecordID())
	return err
}

// Topic operations

func (s *SurrealStore) CreateTopic(ctx context.Context, topic *models.Topic) error {
	if topic.ID.IsZero() {
		topic.ID = models.NewTopicID()
	}
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now()
	}
	if topic.UpdatedAt.IsZero() {
		topic.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Topic](ctx, s.db, "topics", topic)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *SurrealStore) GetTopic(ctx context.Context, id models.TopicID) (*models.Topic, error) {
	topic, err := surrealdb.Select[models.Topic](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return topic, nil
}

func (s *SurrealStore) GetTopicByName(ctx context.Context, name string) (*models.Topic, error) {
	query := "SELECT * FROM topics WHERE name = $name LIMIT 1"
	result, err := surrealdb.Query[[]models.Topic](ctx, s.db, query, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to get topic by name: %w", err)
	}
	return firstOf(result), nil
}

func (s *SurrealStore) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	topic.UpdatedAt = time.Now()
	_, err := surrealdb.Update[models.Topic](ctx, s.db, topic.ID.RecordID(), topic)
	return translateErr(err)
}

func (s *SurrealStore) DeleteTopic(ctx context.Context, id models.TopicID) error {
	_, err := surrealdb.Delete[models.Topic](ctx, s.db, id.RecordID())
	return err
}

// Course operations

func (s *SurrealStore) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID.IsZero() {
		course.ID = models.NewCourseID()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now()
	}
	if course.UpdatedAt.IsZero() {
		course.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Course](ctx, s.db, "courses", course)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *SurrealStore) GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error) {
	course, err := surrealdb.Select[models.Course](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *SurrealStore) GetCourseByTitle(ctx context.Context, title string) (*models.Course, error) {
	query := "SELECT * FROM courses WHERE title = $title LIMIT 1"
	result, err := surrealdb.Query[[]models.Course](ctx, s.db, query, map[string]any{"title": title})
	if err != nil {
		return nil, fmt.Errorf("failed to get course by title: %w", err)
	}
	return firstOf(result), nil
}

func (s *SurrealStore) UpdateCourse(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now()
	_, err := surrealdb.Update[models.Course](ctx, s.db, course.ID.RecordID(), course)
	return translateErr(err)
}

func (s *SurrealStore) DeleteCourse(ctx context.Context, id models.CourseID) error {
	_, err := surrealdb.Delete[models.Course](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) ListCourses(ctx context.Context, topicID models.TopicID) ([]*models.Course, error) {
	query := "SELECT * FROM courses WHERE topic_id = $topic"
	params := map[string]any{"topic": topicID.RecordID()}
	result, err := surrealdb.Query[[]*models.Course](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return sliceOf(result), nil
}

// Lesson operations

func (s *SurrealStore) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID.IsZero() {
		lesson.ID = models.NewLessonID()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now()
	}
	if lesson.UpdatedAt.IsZero() {
		lesson.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Lesson](ctx, s.db, "lessons", lesson)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *SurrealStore) GetLesson(ctx context.Context, id models.LessonID) (*models.Lesson, error) {
	lesson, err := surrealdb.Select[models.Lesson](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *SurrealStore) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now()
	_, err := surrealdb.Update[models.Lesson](ctx, s.db, lesson.ID.RecordID(), lesson)
	return translateErr(err)
}

func (s *SurrealStore) DeleteLesson(ctx context.Context, id models.LessonID) error {
	_, err := surrealdb.Delete[models.Lesson](ctx, s.db, id.RecordID())
	return err
}

func (s *SurrealStore) ListLessons(ctx context.Context, courseID models.CourseID) ([]*models.Lesson, error) {
	query := "SELECT * FROM lessons WHERE course_id = $course"
	params := map[string]any{"course": courseID.RecordID()}
	result, err := surrealdb.Query[[]*models.Lesson](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return sliceOf(result), nil
}

// Order and fulfillment operations

// PlaceOrder runs the order, items, payment and entitlement writes inside
// one SurrealQL transaction, composed in a single Query call because the
// SDK scopes transactions to one RPC.
func (s *SurrealStore) PlaceOrder(ctx context.Context, order *models.Order, payment *models.Payment,
	lessons []models.LessonID, courses []models.CourseID) error {
	if order.AccountID == nil {
		return fmt.Errorf("%w: order requires an account", store.ErrValidation)
	}
	if order.ID.IsZero() {
		order.ID = models.NewOrderID()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
		order.UpdatedAt = now
	}
	if payment.ID.IsZero() {
		payment.ID = models.NewPaymentID()
	}
	payment.OrderID = order.ID
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
		payment.UpdatedAt = now
	}

	items := order.Items
	for _, item := range items {
		if item.ID.IsZero() {
			item.ID = models.NewOrderItemID()
		}
		item.OrderID = order.ID
	}
	// Items are created per-document; the order itself does not embed them.
	bare := *order
	bare.Items = nil

	lessonRIDs := make([]any, 0, len(lessons))
	for _, id := range lessons {
		lessonRIDs = append(lessonRIDs, id.RecordID())
	}
	courseRIDs := make([]any, 0, len(courses))
	for _, id := range courses {
		courseRIDs = append(courseRIDs, id.RecordID())
	}

	query := `
BEGIN TRANSACTION;
CREATE orders CONTENT $order;
FOR $item IN $items { CREATE order_items CONTENT $item; };
CREATE payments CONTENT $payment;
UPDATE $account SET
    entitled_lessons = array::union(entitled_lessons ?? [], $lessons),
    entitled_courses = array::union(entitled_courses ?? [], $courses);
COMMIT TRANSACTION;`
	params := map[string]any{
		"order":   &bare,
		"items":   items,
		"payment": payment,
		"account": order.AccountID.RecordID(),
		"lessons": lessonRIDs,
		"courses": courseRIDs,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetOrder(ctx context.Context, id models.OrderID) (*models.Order, error) {
	order, err := surrealdb.Select[models.Order](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, nil
	}
	items, err := s.listOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *SurrealStore) listOrderItems(ctx context.Context, orderID models.OrderID) ([]*models.OrderItem, error) {
	query := "SELECT * FROM order_items WHERE order_id = $order"
	params := map[string]any{"order": orderID.RecordID()}
	result, err := surrealdb.Query[[]*models.OrderItem](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return sliceOf(result), nil
}

func (s *SurrealStore) ListOrders(ctx context.Context, accountID models.AccountID) ([]*models.Order, error) {
	query := "SELECT * FROM orders WHERE account_id = $account"
	params := map[string]any{"account": accountID.RecordID()}
	result, err := surrealdb.Query[[]*models.Order](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := sliceOf(result)
	for _, order := range orders {
		items, err := s.listOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

// Entitlement operations

func (s *SurrealStore) GrantLesson(ctx context.Context, accountID models.AccountID, lessonID models.LessonID) error {
	query := "UPDATE $account SET entitled_lessons = array::union(entitled_lessons ?? [], [$lesson])"
	params := map[string]any{
		"account": accountID.RecordID(),
		"lesson":  lessonID.RecordID(),
	}
	_, err := surrealdb.Query[any](ctx, s.db, query, params)
	return err
}

func (s *SurrealStore) GrantCourse(ctx context.Context, accountID models.AccountID, courseID models.CourseID) error {
	query := "UPDATE $account SET entitled_courses = array::union(entitled_courses ?? [], [$course])"
	params := map[string]any{
		"account": accountID.RecordID(),
		"course":  courseID.RecordID(),
	}
	_, err := surrealdb.Query[any](ctx, s.db, query, params)
	return err
}

func (s *SurrealStore) ListEntitledLessonIDs(ctx context.Context, accountID models.AccountID) ([]models.LessonID, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return account.EntitledLessons, nil
}

func (s *SurrealStore) ListEntitledCourseIDs(ctx context.Context, accountID models.AccountID) ([]models.CourseID, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return account.EntitledCourses, nil
}

// Certification operations

func (s *SurrealStore) CreateCertification(ctx context.Context, cert *models.Certification) error {
	if cert.ID.IsZero() {
		cert.ID = models.NewCertificationID()
	}
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now()
	}
	if cert.UpdatedAt.IsZero() {
		cert.UpdatedAt = time.Now()
	}
	_, err := surrealdb.Create[models.Certification](ctx, s.db, "certifications", cert)
	if err != nil {
		// The unique index on (account_id, topic_id) rejects the second
		// writer in a concurrent evaluation; report it as a conflict.
		return translateErr(err)
	}
	return nil
}

func (s *SurrealStore) GetCertification(ctx context.Context, accountID models.AccountID, topicID models.TopicID) (*models.Certification, error) {
	query := "SELECT * FROM certifications WHERE account_id = $account AND topic_id = $topic LIMIT 1"
	params := map[string]any{
		"account": accountID.RecordID(),
		"topic":   topicID.RecordID(),
	}
	result, err := surrealdb.Query[[]models.Certification](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get certification: %w", err)
	}
	return firstOf(result), nil
}

func (s *SurrealStore) ListCertifications(ctx context.Context, accountID models.AccountID) ([]*models.Certification, error) {
	query := "SELECT * FROM certifications WHERE account_id = $account"
	params := map[string]any{"account": accountID.RecordID()}
	result, err := surrealdb.Query[[]*models.Certification](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	return sliceOf(result), nil
}

// Cascade cleanup

// ReleaseAccountRefs nulls authored/updated/owning references across every
// dependent table in one SurrealQL transaction.
func (s *SurrealStore) ReleaseAccountRefs(ctx context.Context, accountID models.AccountID) (int64, error) {
	query := `
BEGIN TRANSACTION;
UPDATE lessons SET created_by = NONE WHERE created_by = $account;
UPDATE lessons SET updated_by = NONE WHERE updated_by = $account;
UPDATE courses SET created_by = NONE WHERE created_by = $account;
UPDATE courses SET updated_by = NONE WHERE updated_by = $account;
UPDATE topics SET created_by = NONE WHERE created_by = $account;
UPDATE topics SET updated_by = NONE WHERE updated_by = $account;
UPDATE payments SET created_by = NONE WHERE created_by = $account;
UPDATE payments SET updated_by = NONE WHERE updated_by = $account;
UPDATE certifications SET account_id = NONE WHERE account_id = $account;
UPDATE orders SET account_id = NONE WHERE account_id = $account;
COMMIT TRANSACTION;`
	params := map[string]any{"account": accountID.RecordID()}
	result, err := surrealdb.Query[[]map[string]any](ctx, s.db, query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to release account refs: %w", err)
	}
	var detached int64
	if result != nil {
		for _, res := range *result {
			detached += int64(len(res.Result))
		}
	}
	return detached, nil
}
