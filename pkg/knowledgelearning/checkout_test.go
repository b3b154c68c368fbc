package knowledgelearning

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store/storetest"
)

func seedCatalog(t *testing.T, st store.Store) (*models.Topic, *models.Course, *models.Lesson) {
	t.Helper()
	ctx := context.Background()
	topic := &models.Topic{Name: "Music"}
	require.NoError(t, st.CreateTopic(ctx, topic))
	course := &models.Course{Title: "Guitar", Price: 50, TopicID: topic.ID}
	require.NoError(t, st.CreateCourse(ctx, course))
	lesson := &models.Lesson{Title: "Chords", Price: 20, CourseID: course.ID}
	require.NoError(t, st.CreateLesson(ctx, lesson))
	return topic, course, lesson
}

func TestFulfillPlacesOrderWithSnapshots(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)
	_, course, lesson := seedCatalog(t, st)

	account := &models.Account{Email: "buyer@example.com", Verified: true}
	require.NoError(t, st.CreateAccount(ctx, account))

	cart := &Cart{}
	cart.AddLesson(lesson.ID)
	cart.AddCourse(course.ID)

	checkout := NewCheckout(zerolog.Nop())
	order, err := checkout.Fulfill(ctx, st, account, cart, models.PaymentMethodCard)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 2)
	assert.InDelta(t, 70.0, order.Total(), 1e-9)

	// Prices are snapshots taken at fulfillment.
	lesson.Price = 99
	require.NoError(t, st.UpdateLesson(ctx, lesson))
	stored, err := st.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, stored.Total(), 1e-9)

	lessons, err := st.ListEntitledLessonIDs(ctx, account.ID)
	require.NoError(t, err)
	assert.Contains(t, lessons, lesson.ID)
	courses, err := st.ListEntitledCourseIDs(ctx, account.ID)
	require.NoError(t, err)
	assert.Contains(t, courses, course.ID)
}

func TestFulfillSkipsStaleCartIDs(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)
	_, course, lesson := seedCatalog(t, st)

	account := &models.Account{Email: "buyer@example.com", Verified: true}
	require.NoError(t, st.CreateAccount(ctx, account))

	cart := &Cart{}
	cart.AddLesson(lesson.ID)
	cart.AddCourse(course.ID)

	// The course disappears between add-to-cart and checkout.
	require.NoError(t, st.DeleteCourse(ctx, course.ID))

	checkout := NewCheckout(zerolog.Nop())
	order, err := checkout.Fulfill(ctx, st, account, cart, models.PaymentMethodPaypal)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, lesson.ID, *order.Items[0].LessonID)
}

func TestFulfillAllStaleProducesEmptyOrder(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)

	account := &models.Account{Email: "buyer@example.com", Verified: true}
	require.NoError(t, st.CreateAccount(ctx, account))

	cart := &Cart{}
	cart.AddLesson(models.NewLessonID())

	checkout := NewCheckout(zerolog.Nop())
	order, err := checkout.Fulfill(ctx, st, account, cart, models.PaymentMethodCard)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Zero(t, order.Total())
}

func TestFulfillRejectsEmptyCart(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)

	account := &models.Account{Email: "buyer@example.com", Verified: true}
	require.NoError(t, st.CreateAccount(ctx, account))

	checkout := NewCheckout(zerolog.Nop())
	_, err := checkout.Fulfill(ctx, st, account, &Cart{}, models.PaymentMethodCard)
	assert.ErrorIs(t, err, store.ErrValidation)

	// Nothing durable came out of it.
	orders, err := st.ListOrders(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFulfillRequiresVerifiedAccount(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)

	account := &models.Account{Email: "buyer@example.com", Verified: false}
	require.NoError(t, st.CreateAccount(ctx, account))

	checkout := NewCheckout(zerolog.Nop())
	_, err := checkout.Fulfill(ctx, st, account, &Cart{}, models.PaymentMethodCard)
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestFulfillMirrorsAccountLazily(t *testing.T) {
	ctx := context.Background()
	doc := storetest.NewMemStore(store.BackendDocument)
	_, _, lesson := seedCatalog(t, doc)

	// Account signed up against the relational backend only; its first
	// document-side purchase creates the record there.
	account := &models.Account{
		ID:       models.NewAccountID(),
		Email:    "rel-only@example.com",
		Verified: true,
	}

	cart := &Cart{}
	cart.AddLesson(lesson.ID)

	checkout := NewCheckout(zerolog.Nop())
	order, err := checkout.Fulfill(ctx, doc, account, cart, models.PaymentMethodCard)
	require.NoError(t, err)

	local, err := doc.GetAccountByEmail(ctx, "rel-only@example.com")
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.NotEqual(t, account.ID, local.ID)
	assert.Equal(t, local.ID, *order.AccountID)
}
