// Package storetest provides an in-memory Store implementation for tests.
// It enforces the same uniqueness rules as the real backends (account email,
// one certification per account and topic) so conflict paths can be
// exercised without a database.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// MemStore is a mutex-guarded map-backed Store.
type MemStore struct {
	mu      sync.Mutex
	backend store.Backend

	accounts       map[models.AccountID]*models.Account
	topics         map[models.TopicID]*models.Topic
	courses        map[models.CourseID]*models.Course
	lessons        map[models.LessonID]*models.Lesson
	orders         map[models.OrderID]*models.Order
	payments       map[models.PaymentID]*models.Payment
	certifications map[models.CertificationID]*models.Certification

	lessonGrants map[models.AccountID]map[models.LessonID]bool
	courseGrants map[models.AccountID]map[models.CourseID]bool
}

// NewMemStore returns an empty store reporting the given backend kind.
func NewMemStore(backend store.Backend) *MemStore {
	return &MemStore{
		backend:        backend,
		accounts:       map[models.AccountID]*models.Account{},
		topics:         map[models.TopicID]*models.Topic{},
		courses:        map[models.CourseID]*models.Course{},
		lessons:        map[models.LessonID]*models.Lesson{},
		orders:         map[models.OrderID]*models.Order{},
		payments:       map[models.PaymentID]*models.Payment{},
		certifications: map[models.CertificationID]*models.Certification{},
		lessonGrants:   map[models.AccountID]map[models.LessonID]bool{},
		courseGrants:   map[models.AccountID]map[models.CourseID]bool{},
	}
}

func (s *MemStore) Backend() store.Backend { return s.backend }

func (s *MemStore) Migrate(ctx context.Context) error { return nil }

func (s *MemStore) Close() error { return nil }

func copyAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

// Account operations

func (s *MemStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID.IsZero() {
		account.ID = models.NewAccountID()
	}
	account.Email = models.NormalizeEmail(account.Email)
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return fmt.Errorf("%w: account email %q", store.ErrConflict, account.Email)
		}
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *MemStore) GetAccount(ctx context.Context, id models.AccountID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(account), nil
}

func (s *MemStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, account := range s.accounts {
		if account.Email == email {
			return copyAccount(account), nil
		}
	}
	return nil, nil
}

func (s *MemStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return fmt.Errorf("%w: account %s", store.ErrNotFound, account.ID)
	}
	account.Email = models.NormalizeEmail(account.Email)
	for id, existing := range s.accounts {
		if id != account.ID && existing.Email == account.Email {
			return fmt.Errorf("%w: account email %q", store.ErrConflict, account.Email)
		}
	}
	account.UpdatedAt = time.Now()
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (s *MemStore) DeleteAccount(ctx context.Context, id models.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	delete(s.lessonGrants, id)
	delete(s.courseGrants, id)
	return nil
}

// Topic operations

func (s *MemStore) CreateTopic(ctx context.Context, topic *models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topic.ID.IsZero() {
		topic.ID = models.NewTopicID()
	}
	for _, existing := range s.topics {
		if existing.Name == topic.Name {
			return fmt.Errorf("%w: topic %q", store.ErrConflict, topic.Name)
		}
	}
	c := *topic
	s.topics[topic.ID] = &c
	return nil
}

func (s *MemStore) GetTopic(ctx context.Context, id models.TopicID) (*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	topic, ok := s.topics[id]
	if !ok {
		return nil, nil
	}
	c := *topic
	return &c, nil
}

func (s *MemStore) GetTopicByName(ctx context.Context, name string) (*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, topic := range s.topics {
		if topic.Name == name {
			c := *topic
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemStore) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic.ID]; !ok {
		return fmt.Errorf("%w: topic %s", store.ErrNotFound, topic.ID)
	}
	c := *topic
	s.topics[topic.ID] = &c
	return nil
}

func (s *MemStore) DeleteTopic(ctx context.Context, id models.TopicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, id)
	return nil
}

// Course operations

func (s *MemStore) CreateCourse(ctx context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if course.ID.IsZero() {
		course.ID = models.NewCourseID()
	}
	for _, existing := range s.courses {
		if existing.Title == course.Title {
			return fmt.Errorf("%w: course %q", store.ErrConflict, course.Title)
		}
	}
	c := *course
	s.courses[course.ID] = &c
	return nil
}

func (s *MemStore) GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[id]
	if !ok {
		return nil, nil
	}
	c := *course
	return &c, nil
}

func (s *MemStore) GetCourseByTitle(ctx context.Context, title string) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, course := range s.courses {
		if course.Title == title {
			c := *course
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemStore) UpdateCourse(ctx context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return fmt.Errorf("%w: course %s", store.ErrNotFound, course.ID)
	}
	c := *course
	s.courses[course.ID] = &c
	return nil
}

func (s *MemStore) DeleteCourse(ctx context.Context, id models.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.courses, id)
	return nil
}

func (s *MemStore) ListCourses(ctx context.Context, topicID models.TopicID) ([]*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Course
	for _, course := range s.courses {
		if course.TopicID == topicID {
			c := *course
			out = append(out, &c)
		}
	}
	return out, nil
}

// Lesson operations

func (s *MemStore) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lesson.ID.IsZero() {
		lesson.ID = models.NewLessonID()
	}
	c := *lesson
	s.lessons[lesson.ID] = &c
	return nil
}

func (s *MemStore) GetLesson(ctx context.Context, id models.LessonID) (*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lesson, ok := s.lessons[id]
	if !ok {
		return nil, nil
	}
	c := *lesson
	return &c, nil
}

func (s *MemStore) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[lesson.ID]; !ok {
		return fmt.Errorf("%w: lesson %s", store.ErrNotFound, lesson.ID)
	}
	c := *lesson
	s.lessons[lesson.ID] = &c
	return nil
}

func (s *MemStore) DeleteLesson(ctx context.Context, id models.LessonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lessons, id)
	return nil
}

func (s *MemStore) ListLessons(ctx context.Context, courseID models.CourseID) ([]*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Lesson
	for _, lesson := range s.lessons {
		if lesson.CourseID == courseID {
			c := *lesson
			out = append(out, &c)
		}
	}
	return out, nil
}

// Order and fulfillment operations

func (s *MemStore) PlaceOrder(ctx context.Context, order *models.Order, payment *models.Payment,
	lessons []models.LessonID, courses []models.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.AccountID == nil {
		return fmt.Errorf("%w: order requires an account", store.ErrValidation)
	}
	if order.ID.IsZero() {
		order.ID = models.NewOrderID()
	}
	for _, item := range order.Items {
		if item.ID.IsZero() {
			item.ID = models.NewOrderItemID()
		}
		item.OrderID = order.ID
	}
	if payment.ID.IsZero() {
		payment.ID = models.NewPaymentID()
	}
	payment.OrderID = order.ID

	o := *order
	s.orders[order.ID] = &o
	p := *payment
	s.payments[payment.ID] = &p
	account := *order.AccountID
	for _, id := range lessons {
		s.grantLessonLocked(account, id)
	}
	for _, id := range courses {
		s.grantCourseLocked(account, id)
	}
	return nil
}

func (s *MemStore) GetOrder(ctx context.Context, id models.OrderID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	c := *order
	return &c, nil
}

func (s *MemStore) ListOrders(ctx context.Context, accountID models.AccountID) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for _, order := range s.orders {
		if order.AccountID != nil && *order.AccountID == accountID {
			c := *order
			out = append(out, &c)
		}
	}
	return out, nil
}

// Entitlement operations

func (s *MemStore) grantLessonLocked(accountID models.AccountID, lessonID models.LessonID) {
	if s.lessonGrants[accountID] == nil {
		s.lessonGrants[accountID] = map[models.LessonID]bool{}
	}
	s.lessonGrants[accountID][lessonID] = true
}

func (s *MemStore) grantCourseLocked(accountID models.AccountID, courseID models.CourseID) {
	if s.courseGrants[accountID] == nil {
		s.courseGrants[accountID] = map[models.CourseID]bool{}
	}
	s.courseGrants[accountID][courseID] = true
}

func (s *MemStore) GrantLesson(ctx context.Context, accountID models.AccountID, lessonID models.LessonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grantLessonLocked(accountID, lessonID)
	return nil
}

func (s *MemStore) GrantCourse(ctx context.Context, accountID models.AccountID, courseID models.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grantCourseLocked(accountID, courseID)
	return nil
}

func (s *MemStore) ListEntitledLessonIDs(ctx context.Context, accountID models.AccountID) ([]models.LessonID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LessonID
	for id := range s.lessonGrants[accountID] {
		out = append(out, id)
	}
	return out, nil
}

func (s *MemStore) ListEntitledCourseIDs(ctx context.Context, accountID models.AccountID) ([]models.CourseID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CourseID
	for id := range s.courseGrants[accountID] {
		out = append(out, id)
	}
	return out, nil
}

// Certification operations

func (s *MemStore) CreateCertification(ctx context.Context, cert *models.Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cert.AccountID != nil {
		for _, existing := range s.certifications {
			if existing.AccountID != nil && *existing.AccountID == *cert.AccountID && existing.TopicID == cert.TopicID {
				return fmt.Errorf("%w: certification for account %s topic %s", store.ErrConflict, cert.AccountID, cert.TopicID)
			}
		}
	}
	if cert.ID.IsZero() {
		cert.ID = models.NewCertificationID()
	}
	c := *cert
	s.certifications[cert.ID] = &c
	return nil
}

func (s *MemStore) GetCertification(ctx context.Context, accountID models.AccountID, topicID models.TopicID) (*models.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cert := range s.certifications {
		if cert.AccountID != nil && *cert.AccountID == accountID && cert.TopicID == topicID {
			c := *cert
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ListCertifications(ctx context.Context, accountID models.AccountID) ([]*models.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Certification
	for _, cert := range s.certifications {
		if cert.AccountID != nil && *cert.AccountID == accountID {
			c := *cert
			out = append(out, &c)
		}
	}
	return out, nil
}

// Cascade cleanup

func (s *MemStore) ReleaseAccountRefs(ctx context.Context, accountID models.AccountID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var detached int64
	detach := func(ref **models.AccountID) {
		if *ref != nil && **ref == accountID {
			*ref = nil
			detached++
		}
	}
	for _, lesson := range s.lessons {
		detach(&lesson.CreatedBy)
		detach(&lesson.UpdatedBy)
	}
	for _, course := range s.courses {
		detach(&course.CreatedBy)
		detach(&course.UpdatedBy)
	}
	for _, topic := range s.topics {
		detach(&topic.CreatedBy)
		detach(&topic.UpdatedBy)
	}
	for _, payment := range s.payments {
		detach(&payment.CreatedBy)
		detach(&payment.UpdatedBy)
	}
	for _, cert := range s.certifications {
		detach(&cert.AccountID)
	}
	for _, order := range s.orders {
		detach(&order.AccountID)
	}
	return detached, nil
}
