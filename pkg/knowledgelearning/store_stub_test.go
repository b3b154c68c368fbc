package knowledgelearning

import (
	"context"
	"errors"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

var errStoreDown = errors.New("store down")

// failingStore wraps a store and fails the account operations, simulating
// an unreachable backend for the mirror and cleanup tests.
type failingStore struct {
	store.Store
}

func (f *failingStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return nil, errStoreDown
}

func (f *failingStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return errStoreDown
}

func (f *failingStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	return errStoreDown
}

func (f *failingStore) DeleteAccount(ctx context.Context, id models.AccountID) error {
	return errStoreDown
}
