package knowledgelearning

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// Checkout turns a cart and an account into a durable order. All writes of
// one fulfillment (order, items, payment, entitlement grants) go through the
// store's PlaceOrder in a single flush.
type Checkout struct {
	log zerolog.Logger
}

// NewCheckout builds the fulfillment engine.
func NewCheckout(log zerolog.Logger) *Checkout {
	return &Checkout{log: log}
}

// Fulfill places an order in st for the account identified by its email.
//
// The cart must hold at least one id. The signed-in account may live only in
// the other backend; the first purchase against this one mirrors it lazily,
// creating a record with a fresh store-scoped ID. Cart ids that no longer
// resolve in the catalog are skipped with a log line rather than failing the
// purchase; a cart whose ids all went stale still produces an order with
// zero items. The caller clears the cart only after Fulfill returns nil.
func (co *Checkout) Fulfill(ctx context.Context, st store.Store, account *models.Account, cart *Cart, method models.PaymentMethod) (*models.Order, error) {
	if account == nil {
		return nil, fmt.Errorf("%w: checkout requires an account", store.ErrValidation)
	}
	if !account.Verified {
		return nil, fmt.Errorf("%w: account %s is not verified", store.ErrValidation, account.Email)
	}
	if cart.Empty() {
		return nil, fmt.Errorf("%w: cart is empty", store.ErrValidation)
	}

	local, err := st.GetAccountByEmail(ctx, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checkout account: %w", err)
	}
	if local == nil {
		local = &models.Account{
			Email:        account.Email,
			PasswordHash: account.PasswordHash,
			Roles:        account.Roles,
			Verified:     account.Verified,
		}
		if err := st.CreateAccount(ctx, local); err != nil {
			return nil, fmt.Errorf("failed to mirror account at checkout: %w", err)
		}
		co.log.Info().
			Str("backend", string(st.Backend())).
			Str("email", local.Email).
			Msg("account mirrored lazily at checkout")
	}

	order := &models.Order{AccountID: &local.ID}
	var grantLessons []models.LessonID
	var grantCourses []models.CourseID

	for _, id := range cart.Lessons {
		lesson, err := st.GetLesson(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cart lesson: %w", err)
		}
		if lesson == nil {
			co.log.Warn().
				Str("backend", string(st.Backend())).
				Str("lesson_id", id.String()).
				Msg("skipping stale lesson in cart")
			continue
		}
		lessonID := lesson.ID
		order.Items = append(order.Items, &models.OrderItem{
			LessonID: &lessonID,
			Price:    lesson.Price,
		})
		grantLessons = append(grantLessons, lesson.ID)
	}

	for _, id := range cart.Courses {
		course, err := st.GetCourse(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cart course: %w", err)
		}
		if course == nil {
			co.log.Warn().
				Str("backend", string(st.Backend())).
				Str("course_id", id.String()).
				Msg("skipping stale course in cart")
			continue
		}
		courseID := course.ID
		order.Items = append(order.Items, &models.OrderItem{
			CourseID: &courseID,
			Price:    course.Price,
		})
		grantCourses = append(grantCourses, course.ID)
	}

	payment := &models.Payment{
		Amount:    order.Total(),
		Method:    method,
		CreatedBy: &local.ID,
	}

	if err := st.PlaceOrder(ctx, order, payment, grantLessons, grantCourses); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	co.log.Info().
		Str("backend", string(st.Backend())).
		Str("order_id", order.ID.String()).
		Int("items", len(order.Items)).
		Float64("amount", payment.Amount).
		Msg("order fulfilled")

	return order, nil
}
