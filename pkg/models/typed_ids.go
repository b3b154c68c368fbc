package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Typed IDs are store-scoped: each backend generates its own value when a
// record is first persisted there, and identity is never copied between
// backends. The relational store persists them as uuid columns through
// Value/Scan, the document store as RecordIDs through MarshalCBOR/UnmarshalCBOR.
// The only cross-store join is the natural key (see natural_key.go).

// AccountID is a typed ID for accounts
type AccountID struct {
	uuid uuid.UUID
}

func NewAccountID() AccountID {
	return AccountID{uuid: uuid.New()}
}

func ParseAccountID(s string) (AccountID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid account ID: %w", err)
	}
	return AccountID{uuid: id}, nil
}

func (a AccountID) UUID() uuid.UUID { return a.uuid }
func (a AccountID) String() string  { return a.uuid.String() }
func (a AccountID) IsZero() bool    { return a.uuid == uuid.Nil }

func (a AccountID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "accounts",
		ID:    a.uuid.String(),
	}
}

func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.uuid.String())
}

func (a *AccountID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	a.uuid = id
	return nil
}

func (a AccountID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"accounts", a.uuid.String()},
	})
}

func (a *AccountID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "accounts", &a.uuid)
}

func (a AccountID) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	return a.uuid.String(), nil
}

func (a *AccountID) Scan(value any) error {
	return scanUUID(value, &a.uuid)
}

func (AccountID) GormDataType() string { return "uuid" }

// TopicID is a typed ID for topics
type TopicID struct {
	uuid uuid.UUID
}

func NewTopicID() TopicID {
	return TopicID{uuid: uuid.New()}
}

func ParseTopicID(s string) (TopicID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TopicID{}, fmt.Errorf("invalid topic ID: %w", err)
	}
	return TopicID{uuid: id}, nil
}

func (t TopicID) UUID() uuid.UUID { return t.uuid }
func (t TopicID) String() string  { return t.uuid.String() }
func (t TopicID) IsZero() bool    { return t.uuid == uuid.Nil }

func (t TopicID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "topics",
		ID:    t.uuid.String(),
	}
}

func (t TopicID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.uuid.String())
}

func (t *TopicID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	t.uuid = id
	return nil
}

func (t TopicID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"topics", t.uuid.String()},
	})
}

func (t *TopicID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "topics", &t.uuid)
}

func (t TopicID) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.uuid.String(), nil
}

func (t *TopicID) Scan(value any) error {
	return scanUUID(value, &t.uuid)
}

func (TopicID) GormDataType() string { return "uuid" }

// CourseID is a typed ID for courses
type CourseID struct {
	uuid uuid.UUID
}

func NewCourseID() CourseID {
	return CourseID{uuid: uuid.New()}
}

func ParseCourseID(s string) (CourseID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CourseID{}, fmt.Errorf("invalid course ID: %w", err)
	}
	return CourseID{uuid: id}, nil
}

func (c CourseID) UUID() uuid.UUID { return c.uuid }
func (c CourseID) String() string  { return c.uuid.String() }
func (c CourseID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CourseID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "courses",
		ID:    c.uuid.String(),
	}
}

func (c CourseID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CourseID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CourseID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"courses", c.uuid.String()},
	})
}

func (c *CourseID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "courses", &c.uuid)
}

func (c CourseID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CourseID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CourseID) GormDataType() string { return "uuid" }

// LessonID is a typed ID for lessons
type LessonID struct {
	uuid uuid.UUID
}

func NewLessonID() LessonID {
	return LessonID{uuid: uuid.New()}
}

func ParseLessonID(s string) (LessonID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return LessonID{}, fmt.Errorf("invalid lesson ID: %w", err)
	}
	return LessonID{uuid: id}, nil
}

func (l LessonID) UUID() uuid.UUID { return l.uuid }
func (l LessonID) String() string  { return l.uuid.String() }
func (l LessonID) IsZero() bool    { return l.uuid == uuid.Nil }

func (l LessonID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "lessons",
		ID:    l.uuid.String(),
	}
}

func (l LessonID) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.uuid.String())
}

func (l *LessonID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	l.uuid = id
	return nil
}

func (l LessonID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"lessons", l.uuid.String()},
	})
}

func (l *LessonID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "lessons", &l.uuid)
}

func (l LessonID) Value() (driver.Value, error) {
	if l.IsZero() {
		return nil, nil
	}
	return l.uuid.String(), nil
}

func (l *LessonID) Scan(value any) error {
	return scanUUID(value, &l.uuid)
}

func (LessonID) GormDataType() string { return "uuid" }

// OrderID is a typed ID for orders
type OrderID struct {
	uuid uuid.UUID
}

func NewOrderID() OrderID {
	return OrderID{uuid: uuid.New()}
}

func ParseOrderID(s string) (OrderID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, fmt.Errorf("invalid order ID: %w", err)
	}
	return OrderID{uuid: id}, nil
}

func (o OrderID) UUID() uuid.UUID { return o.uuid }
func (o OrderID) String() string  { return o.uuid.String() }
func (o OrderID) IsZero() bool    { return o.uuid == uuid.Nil }

func (o OrderID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "orders",
		ID:    o.uuid.String(),
	}
}

func (o OrderID) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.uuid.String())
}

func (o *OrderID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	o.uuid = id
	return nil
}

func (o OrderID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"orders", o.uuid.String()},
	})
}

func (o *OrderID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "orders", &o.uuid)
}

func (o OrderID) Value() (driver.Value, error) {
	if o.IsZero() {
		return nil, nil
	}
	return o.uuid.String(), nil
}

func (o *OrderID) Scan(value any) error {
	return scanUUID(value, &o.uuid)
}

func (OrderID) GormDataType() string { return "uuid" }

// OrderItemID is a typed ID for order items
type OrderItemID struct {
	uuid uuid.UUID
}

func NewOrderItemID() OrderItemID {
	return OrderItemID{uuid: uuid.New()}
}

func ParseOrderItemID(s string) (OrderItemID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrderItemID{}, fmt.Errorf("invalid order item ID: %w", err)
	}
	return OrderItemID{uuid: id}, nil
}

func (o OrderItemID) UUID() uuid.UUID { return o.uuid }
func (o OrderItemID) String() string  { return o.uuid.String() }
func (o OrderItemID) IsZero() bool    { return o.uuid == uuid.Nil }

func (o OrderItemID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "order_items",
		ID:    o.uuid.String(),
	}
}

func (o OrderItemID) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.uuid.String())
}

func (o *OrderItemID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	o.uuid = id
	return nil
}

func (o OrderItemID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"order_items", o.uuid.String()},
	})
}

func (o *OrderItemID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "order_items", &o.uuid)
}

func (o OrderItemID) Value() (driver.Value, error) {
	if o.IsZero() {
		return nil, nil
	}
	return o.uuid.String(), nil
}

func (o *OrderItemID) Scan(value any) error {
	return scanUUID(value, &o.uuid)
}

func (OrderItemID) GormDataType() string { return "uuid" }

// PaymentID is a typed ID for payments
type PaymentID struct {
	uuid uuid.UUID
}

func NewPaymentID() PaymentID {
	return PaymentID{uuid: uuid.New()}
}

func ParsePaymentID(s string) (PaymentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PaymentID{}, fmt.Errorf("invalid payment ID: %w", err)
	}
	return PaymentID{uuid: id}, nil
}

func (p PaymentID) UUID() uuid.UUID { return p.uuid }
func (p PaymentID) String() string  { return p.uuid.String() }
func (p PaymentID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p PaymentID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "payments",
		ID:    p.uuid.String(),
	}
}

func (p PaymentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *PaymentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	p.uuid = id
	return nil
}

func (p PaymentID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"payments", p.uuid.String()},
	})
}

func (p *PaymentID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "payments", &p.uuid)
}

func (p PaymentID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *PaymentID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (PaymentID) GormDataType() string { return "uuid" }

// CertificationID is a typed ID for certifications
type CertificationID struct {
	uuid uuid.UUID
}

func NewCertificationID() CertificationID {
	return CertificationID{uuid: uuid.New()}
}

func ParseCertificationID(s string) (CertificationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CertificationID{}, fmt.Errorf("invalid certification ID: %w", err)
	}
	return CertificationID{uuid: id}, nil
}

func (c CertificationID) UUID() uuid.UUID { return c.uuid }
func (c CertificationID) String() string  { return c.uuid.String() }
func (c CertificationID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CertificationID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "certifications",
		ID:    c.uuid.String(),
	}
}

func (c CertificationID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CertificationID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CertificationID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"certifications", c.uuid.String()},
	})
}

func (c *CertificationID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "certifications", &c.uuid)
}

func (c CertificationID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CertificationID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CertificationID) GormDataType() string { return "uuid" }

// Helper functions

// scanUUID is a helper for implementing sql.Scanner interface for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}

// Binary marshaling delegates to the underlying uuid so the IDs survive gob
// encoding, which is how carts travel inside session cookies.

func (a AccountID) MarshalBinary() ([]byte, error)        { return a.uuid.MarshalBinary() }
func (a *AccountID) UnmarshalBinary(data []byte) error    { return a.uuid.UnmarshalBinary(data) }
func (t TopicID) MarshalBinary() ([]byte, error)          { return t.uuid.MarshalBinary() }
func (t *TopicID) UnmarshalBinary(data []byte) error      { return t.uuid.UnmarshalBinary(data) }
func (c CourseID) MarshalBinary() ([]byte, error)         { return c.uuid.MarshalBinary() }
func (c *CourseID) UnmarshalBinary(data []byte) error     { return c.uuid.UnmarshalBinary(data) }
func (l LessonID) MarshalBinary() ([]byte, error)         { return l.uuid.MarshalBinary() }
func (l *LessonID) UnmarshalBinary(data []byte) error     { return l.uuid.UnmarshalBinary(data) }
func (o OrderID) MarshalBinary() ([]byte, error)          { return o.uuid.MarshalBinary() }
func (o *OrderID) UnmarshalBinary(data []byte) error      { return o.uuid.UnmarshalBinary(data) }
func (i OrderItemID) MarshalBinary() ([]byte, error)      { return i.uuid.MarshalBinary() }
func (i *OrderItemID) UnmarshalBinary(data []byte) error  { return i.uuid.UnmarshalBinary(data) }
func (p PaymentID) MarshalBinary() ([]byte, error)        { return p.uuid.MarshalBinary() }
func (p *PaymentID) UnmarshalBinary(data []byte) error    { return p.uuid.UnmarshalBinary(data) }
func (c CertificationID) MarshalBinary() ([]byte, error)  { return c.uuid.MarshalBinary() }
func (c *CertificationID) UnmarshalBinary(data []byte) error {
	return c.uuid.UnmarshalBinary(data)
}
