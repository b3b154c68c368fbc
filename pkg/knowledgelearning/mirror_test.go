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

func TestMirrorLeavesAbsentCounterpartAlone(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)
	mirror := NewMirror(zerolog.Nop(), rel, doc)

	account := &models.Account{Email: "jane@example.com", PasswordHash: "h", Verified: true}
	require.NoError(t, rel.CreateAccount(ctx, account))

	// A store that has never seen the account stays empty; the record
	// appears lazily at first purchase instead.
	mirror.AccountSaved(ctx, store.BackendRelational, account, "")

	counterpart, err := doc.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Nil(t, counterpart)
}

func TestEnsureMirroredCreatesCounterpartWithOwnID(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)
	mirror := NewMirror(zerolog.Nop(), rel, doc)

	account := &models.Account{Email: "jane@example.com", PasswordHash: "h", Verified: true}
	require.NoError(t, rel.CreateAccount(ctx, account))

	mirror.EnsureMirrored(ctx, store.BackendRelational, account, "")

	counterpart, err := doc.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, counterpart)
	assert.Equal(t, account.Email, counterpart.Email)
	assert.Equal(t, account.PasswordHash, counterpart.PasswordHash)
	assert.True(t, counterpart.Verified)
	assert.NotEqual(t, account.ID, counterpart.ID)
}

func TestMirrorUpdatesExistingCounterpart(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)
	mirror := NewMirror(zerolog.Nop(), rel, doc)

	require.NoError(t, doc.CreateAccount(ctx, &models.Account{Email: "jane@example.com", PasswordHash: "old"}))
	counterpart, err := doc.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)

	account := &models.Account{Email: "jane@example.com", PasswordHash: "new", Verified: true}
	require.NoError(t, rel.CreateAccount(ctx, account))
	mirror.AccountSaved(ctx, store.BackendRelational, account, "")

	updated, err := doc.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, counterpart.ID, updated.ID)
	assert.Equal(t, "new", updated.PasswordHash)
	assert.True(t, updated.Verified)
}

func TestMirrorEmailChangeUsesPriorEmail(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)
	mirror := NewMirror(zerolog.Nop(), rel, doc)

	require.NoError(t, doc.CreateAccount(ctx, &models.Account{Email: "old@example.com"}))
	counterpart, err := doc.GetAccountByEmail(ctx, "old@example.com")
	require.NoError(t, err)

	account := &models.Account{Email: "new@example.com"}
	require.NoError(t, rel.CreateAccount(ctx, account))
	mirror.AccountSaved(ctx, store.BackendRelational, account, "old@example.com")

	gone, err := doc.GetAccountByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, gone)

	renamed, err := doc.GetAccountByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, counterpart.ID, renamed.ID)
}

func TestMirrorSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	down := &failingStore{Store: storetest.NewMemStore(store.BackendDocument)}
	mirror := NewMirror(zerolog.Nop(), rel, down)

	account := &models.Account{Email: "jane@example.com"}
	require.NoError(t, rel.CreateAccount(ctx, account))

	// Must not panic or surface the failure; the stores simply diverge.
	mirror.AccountSaved(ctx, store.BackendRelational, account, "")

	kept, err := rel.GetAccountByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestMirrorSkipsOriginBackend(t *testing.T) {
	ctx := context.Background()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)
	mirror := NewMirror(zerolog.Nop(), rel, doc)

	account := &models.Account{Email: "doc-first@example.com"}
	require.NoError(t, doc.CreateAccount(ctx, account))
	mirror.EnsureMirrored(ctx, store.BackendDocument, account, "")

	mirrored, err := rel.GetAccountByEmail(ctx, "doc-first@example.com")
	require.NoError(t, err)
	require.NotNil(t, mirrored)

	// One record per store, not a second copy in the origin.
	docSide, err := doc.GetAccountByEmail(ctx, "doc-first@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, docSide.ID)
}
