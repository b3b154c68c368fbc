// Package postgres provides the relational implementation of
// [github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store.Store] using GORM.
//
// GORM handles SQL generation, connection pooling and schema migration.
// Uniqueness (account email, certification pair) is enforced by database
// constraints created during Migrate; duplicate-key failures are translated
// by GORM (TranslateError) and mapped to store.ErrConflict so the engines
// never see driver-specific errors.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to PostgreSQL and returns the relational store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Backend() store.Backend { return store.BackendRelational }

// Migrate creates tables, indexes and the uniqueness constraints through
// GORM's AutoMigrate. Safe to run repeatedly.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Account{},
		&models.Topic{},
		&models.Course{},
		&models.Lesson{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Certification{},
		&models.AccountLesson{},
		&models.AccountCourse{},
	)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateErr maps GORM's translated errors onto the store taxonomy.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", store.ErrConflict, err)
	}
	return err
}

// Account operations

func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	account.Email = models.NormalizeEmail(account.Email)
	return translateErr(s.db.WithContext(ctx).Create(account).Error)
}

func (s *PostgresStore) GetAccount(ctx context.Context, id models.AccountID) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (s *PostgresStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	account.Email = models.NormalizeEmail(account.Email)
	return translateErr(s.db.WithContext(ctx).Save(account).Error)
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, id models.AccountID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.AccountLesson{}, "account_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.AccountCourse{}, "account_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Account{}, "id = ?", id).Error
	})
}

// Topic operations

func (s *PostgresStore) CreateTopic(ctx context.Context, topic *models.Topic) error {
	return translateErr(s.db.WithContext(ctx).Create(topic).Error)
}

func (s *PostgresStore) GetTopic(ctx context.Context, id models.TopicID) (*models.Topic, error) {
	var topic models.Topic
	err := s.db.WithContext(ctx).First(&topic, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &topic, nil
}

func (s *PostgresStore) GetTopicByName(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&topic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &topic, nil
}

func (s *PostgresStore) UpdateTopic(ctx context.Context, topic *models.Topic) error {
	return translateErr(s.db.WithContext(ctx).Save(topic).Error)
}

func (s *PostgresStore) DeleteTopic(ctx context.Context, id models.TopicID) error {
	return s.db.WithContext(ctx).Delete(&models.Topic{}, "id = ?", id).Error
}

// Course operations

func (s *PostgresStore) CreateCourse(ctx context.Context, course *models.Course) error {
	return translateErr(s.db.WithContext(ctx).Create(course).Error)
}

func (s *PostgresStore) GetCourse(ctx context.Context, id models.CourseID) (*models.Course, error) {
	var course models.Course
	err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (s *PostgresStore) GetCourseByTitle(ctx context.Context, title string) (*models.Course, error) {
	var course models.Course
	err := s.db.WithContext(ctx).Where("title = ?", title).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (s *PostgresStore) UpdateCourse(ctx context.Context, course *models.Course) error {
	return translateErr(s.db.WithContext(ctx).Save(course).Error)
}

func (s *PostgresStore) DeleteCourse(ctx context.Context, id models.CourseID) error {
	return s.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id).Error
}

func (s *PostgresStore) ListCourses(ctx context.Context, topicID models.TopicID) ([]*models.Course, error) {
	var courses []*models.Course
	err := s.db.WithContext(ctx).Where("topic_id = ?", topicID).Find(&courses).Error
	return courses, err
}

// Lesson operations

func (s *PostgresStore) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	return translateErr(s.db.WithContext(ctx).Create(lesson).Error)
}

func (s *PostgresStore) GetLesson(ctx context.Context, id models.LessonID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := s.db.WithContext(ctx).First(&lesson, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lesson, nil
}

func (s *PostgresStore) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	return translateErr(s.db.WithContext(ctx).Save(lesson).Error)
}

func (s *PostgresStore) DeleteLesson(ctx context.Context, id models.LessonID) error {
	return s.db.WithContext(ctx).Delete(&models.Lesson{}, "id = ?", id).Error
}

func (s *PostgresStore) ListLessons(ctx context.Context, courseID models.CourseID) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Find(&lessons).Error
	return lessons, err
}

// Order and fulfillment operations

// PlaceOrder writes the order, items, payment and entitlement joins in one
// transaction so fulfillment is a single flush.
func (s *PostgresStore) PlaceOrder(ctx context.Context, order *models.Order, payment *models.Payment,
	lessons []models.LessonID, courses []models.CourseID) error {
	if order.AccountID == nil {
		return fmt.Errorf("%w: order requires an account", store.ErrValidation)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		payment.OrderID = order.ID
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		for _, lessonID := range lessons {
			join := models.AccountLesson{AccountID: *order.AccountID, LessonID: lessonID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&join).Error; err != nil {
				return err
			}
		}
		for _, courseID := range courses {
			join := models.AccountCourse{AccountID: *order.AccountID, CourseID: courseID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&join).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) GetOrder(ctx context.Context, id models.OrderID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, accountID models.AccountID) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.WithContext(ctx).Preload("Items").Where("account_id = ?", accountID).Find(&orders).Error
	return orders, err
}

// Entitlement operations

func (s *PostgresStore) GrantLesson(ctx context.Context, accountID models.AccountID, lessonID models.LessonID) error {
	join := models.AccountLesson{AccountID: accountID, LessonID: lessonID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&join).Error
}

func (s *PostgresStore) GrantCourse(ctx context.Context, accountID models.AccountID, courseID models.CourseID) error {
	join := models.AccountCourse{AccountID: accountID, CourseID: courseID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&join).Error
}

func (s *PostgresStore) ListEntitledLessonIDs(ctx context.Context, accountID models.AccountID) ([]models.LessonID, error) {
	var ids []models.LessonID
	err := s.db.WithContext(ctx).
		Model(&models.AccountLesson{}).
		Where("account_id = ?", accountID).
		Pluck("lesson_id", &ids).Error
	return ids, err
}

func (s *PostgresStore) ListEntitledCourseIDs(ctx context.Context, accountID models.AccountID) ([]models.CourseID, error) {
	var ids []models.CourseID
	err := s.db.WithContext(ctx).
		Model(&models.AccountCourse{}).
		Where("account_id = ?", accountID).
		Pluck("course_id", &ids).Error
	return ids, err
}

// Certification operations

func (s *PostgresStore) CreateCertification(ctx context.Context, cert *models.Certification) error {
	return translateErr(s.db.WithContext(ctx).Create(cert).Error)
}

func (s *PostgresStore) GetCertification(ctx context.Context, accountID models.AccountID, topicID models.TopicID) (*models.Certification, error) {
	var cert models.Certification
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND topic_id = ?", accountID, topicID).
		First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cert, nil
}

func (s *PostgresStore) ListCertifications(ctx context.Context, accountID models.AccountID) ([]*models.Certification, error) {
	var certs []*models.Certification
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&certs).Error
	return certs, err
}

// Cascade cleanup

// ReleaseAccountRefs nulls authored/updated/owning references across every
// dependent table in one transaction. It touches only this backend; the
// caller runs a separate pass per active store.
func (s *PostgresStore) ReleaseAccountRefs(ctx context.Context, accountID models.AccountID) (int64, error) {
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		type target struct {
			model   any
			columns []string
		}
		targets := []target{
			{&models.Lesson{}, []string{"created_by", "updated_by"}},
			{&models.Course{}, []string{"created_by", "updated_by"}},
			{&models.Topic{}, []string{"created_by", "updated_by"}},
			{&models.Payment{}, []string{"created_by", "updated_by"}},
			{&models.Certification{}, []string{"account_id"}},
			{&models.Order{}, []string{"account_id"}},
		}
		for _, t := range targets {
			for _, col := range t.columns {
				res := tx.Model(t.model).Where(col+" = ?", accountID).Update(col, nil)
				if res.Error != nil {
					return res.Error
				}
				detached += res.RowsAffected
			}
		}
		return nil
	})
	return detached, err
}
