package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role names carried by an account. Admins manage the catalog; students
// buy lessons and earn certifications.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// PaymentMethod identifies how an order was settled. The value is reported
// by the external payment gateway on its success callback.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodPaypal   PaymentMethod = "paypal"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// RoleSet is an account's set of role names. It is stored as a single
// comma-separated string in the relational store and as a plain array in
// the document store.
type RoleSet []string

func (r RoleSet) Has(role string) bool {
	for _, have := range r {
		if have == role {
			return true
		}
	}
	return false
}

// Value implements the driver.Valuer interface for database storage
func (r RoleSet) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "", nil
	}
	return strings.Join(r, ","), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (r *RoleSet) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into RoleSet", value)
	}
	if s == "" {
		*r = nil
		return nil
	}
	*r = strings.Split(s, ",")
	return nil
}

func (RoleSet) GormDataType() string { return "text" }

// Account represents a platform user. Each backend holds its own
// representation with an independent primary key; the unique email is the
// natural key that joins the two (see the identity mirror).
//
// EntitledLessons and EntitledCourses are the account's direct grants. The
// relational store keeps them in join tables (AccountLesson, AccountCourse)
// and ignores these fields; the document store embeds them on the account
// document as RecordID arrays.
type Account struct {
	ID    AccountID `gorm:"type:uuid;primary_key" json:"id"`
	Email string    `gorm:"unique;not null" json:"email"`
	// The cbor tag matters: the document store serializes through a codec
	// that falls back to json tags, and json:"-" alone would drop the hash
	// from every account document. cbor wins, json still hides it over HTTP.
	PasswordHash string    `gorm:"not null" json:"-" cbor:"password_hash"`
	Roles        RoleSet   `json:"roles"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	EntitledLessons []LessonID `gorm:"-" json:"entitled_lessons,omitempty"`
	EntitledCourses []CourseID `gorm:"-" json:"entitled_courses,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID.IsZero() {
		a.ID = NewAccountID()
	}
	return nil
}

// AccountLesson is the relational join row for a direct lesson entitlement.
type AccountLesson struct {
	AccountID AccountID `gorm:"type:uuid;primaryKey" json:"account_id"`
	LessonID  LessonID  `gorm:"type:uuid;primaryKey" json:"lesson_id"`
}

// AccountCourse is the relational join row for a direct course entitlement.
type AccountCourse struct {
	AccountID AccountID `gorm:"type:uuid;primaryKey" json:"account_id"`
	CourseID  CourseID  `gorm:"type:uuid;primaryKey" json:"course_id"`
}

// Topic is a top-level catalog grouping containing courses. Its name is the
// natural key.
type Topic struct {
	ID        TopicID    `gorm:"type:uuid;primary_key" json:"id"`
	Name      string     `gorm:"unique;not null" json:"name"`
	CreatedBy *AccountID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *AccountID `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID.IsZero() {
		t.ID = NewTopicID()
	}
	return nil
}

// Course is a purchasable bundle of lessons under a topic. Its title is the
// natural key.
type Course struct {
	ID        CourseID   `gorm:"type:uuid;primary_key" json:"id"`
	Title     string     `gorm:"unique;not null" json:"title"`
	Price     float64    `gorm:"not null" json:"price"`
	TopicID   TopicID    `gorm:"type:uuid;not null" json:"topic_id"`
	CreatedBy *AccountID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *AccountID `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCourseID()
	}
	return nil
}

// Lesson is the smallest purchasable and completable unit.
type Lesson struct {
	ID        LessonID   `gorm:"type:uuid;primary_key" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	Price     float64    `gorm:"not null" json:"price"`
	VideoURL  string     `json:"video_url,omitempty"`
	CourseID  CourseID   `gorm:"type:uuid;not null" json:"course_id"`
	CreatedBy *AccountID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *AccountID `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID.IsZero() {
		l.ID = NewLessonID()
	}
	return nil
}

// Order is the durable record of a successful checkout. Orders and their
// items are append-only once written; the account reference is nullable so
// cascade cleanup can detach it without destroying purchase history.
type Order struct {
	ID        OrderID      `gorm:"type:uuid;primary_key" json:"id"`
	AccountID *AccountID   `gorm:"type:uuid" json:"account_id,omitempty"`
	Items     []*OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID.IsZero() {
		o.ID = NewOrderID()
	}
	return nil
}

// Total sums the price snapshots of the order's items.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}

// OrderItem references either a lesson or a course and snapshots its price
// at purchase time. Later catalog price edits never change an order.
type OrderItem struct {
	ID       OrderItemID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID  OrderID     `gorm:"type:uuid;not null" json:"order_id"`
	LessonID *LessonID   `gorm:"type:uuid" json:"lesson_id,omitempty"`
	CourseID *CourseID   `gorm:"type:uuid" json:"course_id,omitempty"`
	Price    float64     `gorm:"not null" json:"price"`
}

// BeforeCreate hook to generate ID if not set
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID.IsZero() {
		i.ID = NewOrderItemID()
	}
	return nil
}

// Payment captures the settled total of one order.
type Payment struct {
	ID        PaymentID     `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   OrderID       `gorm:"type:uuid;not null" json:"order_id"`
	Amount    float64       `gorm:"not null" json:"amount"`
	Method    PaymentMethod `gorm:"not null" json:"method"`
	CreatedBy *AccountID    `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *AccountID    `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewPaymentID()
	}
	return nil
}

// Certification is the award record for full topic completion. At most one
// exists per (account, topic) pair; the composite unique index is the
// race-breaker for concurrent evaluations.
type Certification struct {
	ID         CertificationID `gorm:"type:uuid;primary_key" json:"id"`
	AccountID  *AccountID      `gorm:"type:uuid;uniqueIndex:idx_certifications_account_topic" json:"account_id,omitempty"`
	TopicID    TopicID         `gorm:"type:uuid;not null;uniqueIndex:idx_certifications_account_topic" json:"topic_id"`
	Obtained   bool            `gorm:"not null;default:false" json:"obtained"`
	ObtainedAt *time.Time      `json:"obtained_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (c *Certification) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCertificationID()
	}
	return nil
}
