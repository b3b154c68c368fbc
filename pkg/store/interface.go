// Package store defines the persistence abstraction for the Knowledge
// Learning platform.
//
// The [Store] interface is implemented once per backend:
//
//   - postgres.PostgresStore: GORM over PostgreSQL with ACID transactions
//   - surreal.SurrealStore: native SurrealQL over the SurrealDB SDK with
//     the surrealcbor codec
//   - storetest.MemStore: in-memory implementation backing unit tests
//
// Every engine in pkg/knowledgelearning (checkout, certification,
// entitlement query, cascade cleanup) is written once against this
// interface and instantiated per active backend, which is what keeps the
// two backend code paths from duplicating. The identity mirror is the only
// component that holds two Stores at once, and even it only ever joins them
// by natural key.
//
// Conventions, shared by all implementations:
//
//   - Get* methods return (nil, nil) for missing records; callers decide
//     whether absence is an error.
//   - Create methods generate a store-scoped ID when the entity's ID is
//     zero. IDs are never reused across backends.
//   - Uniqueness violations (account email, certification pair) are
//     returned as errors matching [ErrConflict].
//   - List methods return empty slices, never nil errors for no rows.
package store

import (
	"context"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
)

// Backend tags which store a value or request belongs to. Engines receive
// backend-homogeneous arguments; the tag exists for routing and logging,
// never for cross-store comparison.
type Backend string

const (
	BackendRelational Backend = "relational"
	BackendDocument   Backend = "document"
)

// Store is the per-backend persistence interface. Find / find-by-natural-key /
// persist / delete for each catalog entity, plus the composite operations
// that must commit as a single flush (PlaceOrder) or run store-natively
// (ReleaseAccountRefs).
type Store interface {
	// Backend identifies which store this is, for logs and cart routing.
	Backend() Backend

	// Account operations. Email is the account's natural key and must be
	// unique within the store; CreateAccount and UpdateAccount return
	// ErrConflict when it is not.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id models.AccountID) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id models.AccountID) error

	// Topic operations. Name is the natural key.
	CreateTopic(ctx context.Context, topic *models.Topic) error
	GetTopic(ctx context.Context, id models.TopicID) (*models.Topic, error)
	GetTopicByName(ctx context.Context, name string) (*models.Topic, error)
	UpdateTopic(ctx context.Context, topic *models.Topic) error
	DeleteTopic(ctx context.Context, id models.TopicID) error

	// Course operations. Title is the natural key. ListCourses returns the
	// courses currently under a topic.
	CreateCourse(ctx context.Context, course *models.Course) error
	GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error)
	GetCourseByTitle(ctx context.Context, title string) (*models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id models.CourseID) error
	ListCourses(ctx context.Context, topicID models.TopicID) ([]*models.Course, error)

	// Lesson operations. ListLessons returns a course's current membership;
	// entitlement and certification both evaluate against it live.
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	GetLesson(ctx context.Context, id models.LessonID) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, id models.LessonID) error
	ListLessons(ctx context.Context, courseID models.CourseID) ([]*models.Lesson, error)

	// PlaceOrder persists the order, its items, the payment, and the direct
	// entitlement grants for the listed lessons and courses in one atomic
	// flush. Either everything is durable or nothing is; callers clear the
	// session cart only after it returns nil.
	PlaceOrder(ctx context.Context, order *models.Order, payment *models.Payment,
		lessons []models.LessonID, courses []models.CourseID) error
	GetOrder(ctx context.Context, id models.OrderID) (*models.Order, error)
	ListOrders(ctx context.Context, accountID models.AccountID) ([]*models.Order, error)

	// Direct entitlement grants and queries. Grants are idempotent: a
	// repeated grant is a no-op, never a conflict.
	GrantLesson(ctx context.Context, accountID models.AccountID, lessonID models.LessonID) error
	GrantCourse(ctx context.Context, accountID models.AccountID, courseID models.CourseID) error
	ListEntitledLessonIDs(ctx context.Context, accountID models.AccountID) ([]models.LessonID, error)
	ListEntitledCourseIDs(ctx context.Context, accountID models.AccountID) ([]models.CourseID, error)

	// Certification operations. CreateCertification returns ErrConflict
	// when a record for the same (account, topic) pair already exists; the
	// store-level unique index is what breaks check-then-insert races.
	CreateCertification(ctx context.Context, cert *models.Certification) error
	GetCertification(ctx context.Context, accountID models.AccountID, topicID models.TopicID) (*models.Certification, error)
	ListCertifications(ctx context.Context, accountID models.AccountID) ([]*models.Certification, error)

	// ReleaseAccountRefs nulls every authored/updated/owning reference to
	// the account across lessons, courses, topics, certifications, orders
	// and payments, persisting the changes. It returns the number of
	// records detached. Run before DeleteAccount by cascade cleanup.
	ReleaseAccountRefs(ctx context.Context, accountID models.AccountID) (int64, error)

	// Migrate initializes the backend's schema, including the uniqueness
	// constraints on account email and the certification pair.
	Migrate(ctx context.Context) error

	// Close releases the backend's connections.
	Close() error
}
