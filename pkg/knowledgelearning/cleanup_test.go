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

func TestDeleteAccountDetachesRefsBeforeDelete(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)

	account := &models.Account{Email: "author@example.com"}
	require.NoError(t, st.CreateAccount(ctx, account))
	authorID := account.ID

	topic := &models.Topic{Name: "Music", CreatedBy: &authorID}
	require.NoError(t, st.CreateTopic(ctx, topic))
	order := &models.Order{AccountID: &authorID}
	payment := &models.Payment{Method: models.PaymentMethodCard, CreatedBy: &authorID}
	require.NoError(t, st.PlaceOrder(ctx, order, payment, nil, nil))

	cleanup := NewCleanup(zerolog.Nop())
	require.NoError(t, cleanup.DeleteAccount(ctx, []store.Store{st}, "author@example.com"))

	gone, err := st.GetAccount(ctx, authorID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Authored and owning records survive with their refs detached.
	keptTopic, err := st.GetTopic(ctx, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, keptTopic)
	assert.Nil(t, keptTopic.CreatedBy)

	keptOrder, err := st.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, keptOrder)
	assert.Nil(t, keptOrder.AccountID)
}

func TestDeleteAccountBothBackendsIndependent(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)

	require.NoError(t, rel.CreateAccount(ctx, &models.Account{Email: "jane@example.com"}))
	require.NoError(t, doc.CreateAccount(ctx, &models.Account{Email: "jane@example.com"}))

	cleanup := NewCleanup(zerolog.Nop())
	require.NoError(t, cleanup.DeleteAccount(ctx, []store.Store{rel, doc}, "jane@example.com"))

	relSide, err := rel.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Nil(t, relSide)
	docSide, err := doc.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Nil(t, docSide)
}

func TestDeleteAccountSucceedsWhenOneBackendFails(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	down := &failingStore{Store: storetest.NewMemStore(store.BackendDocument)}

	require.NoError(t, rel.CreateAccount(ctx, &models.Account{Email: "jane@example.com"}))

	cleanup := NewCleanup(zerolog.Nop())
	err := cleanup.DeleteAccount(ctx, []store.Store{rel, down}, "jane@example.com")
	require.NoError(t, err)

	relSide, err := rel.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Nil(t, relSide)
}

func TestDeleteAccountFailsWhenAllBackendsFail(t *testing.T) {
	ctx := context.Background()
	down := &failingStore{Store: storetest.NewMemStore(store.BackendRelational)}

	cleanup := NewCleanup(zerolog.Nop())
	err := cleanup.DeleteAccount(ctx, []store.Store{down}, "jane@example.com")
	assert.Error(t, err)
}

func TestDeleteAccountMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemStore(store.BackendRelational)

	cleanup := NewCleanup(zerolog.Nop())
	err := cleanup.DeleteAccount(ctx, []store.Store{st}, "ghost@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
