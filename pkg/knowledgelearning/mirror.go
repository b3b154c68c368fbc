package knowledgelearning

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// Mirror propagates account mutations between backends on a best-effort
// basis. The stores share no primary-key space, so the counterpart record is
// located by the unique email natural key and keeps its own ID; only fields
// are copied. A failed propagation is logged and swallowed, leaving the
// stores divergent until the next successful write.
type Mirror struct {
	log    zerolog.Logger
	stores []store.Store
}

// NewMirror builds a mirror over the given stores.
func NewMirror(log zerolog.Logger, stores ...store.Store) *Mirror {
	return &Mirror{log: log, stores: stores}
}

// AccountSaved propagates a create or update of account, originating in the
// origin backend, to every other store. When the mutation changed the email,
// priorEmail carries the pre-change value so the counterpart can still be
// found; pass "" otherwise.
//
// Stores with no counterpart yet are left alone: the record appears lazily
// at the account's first purchase against that backend. Callers that need
// the counterpart immediately use EnsureMirrored instead.
func (m *Mirror) AccountSaved(ctx context.Context, origin store.Backend, account *models.Account, priorEmail string) {
	m.mirror(ctx, origin, account, priorEmail, false)
}

// EnsureMirrored propagates like AccountSaved but also creates the
// counterpart in stores that have never seen the account.
func (m *Mirror) EnsureMirrored(ctx context.Context, origin store.Backend, account *models.Account, priorEmail string) {
	m.mirror(ctx, origin, account, priorEmail, true)
}

func (m *Mirror) mirror(ctx context.Context, origin store.Backend, account *models.Account, priorEmail string, createMissing bool) {
	lookup := account.Email
	if priorEmail != "" {
		lookup = priorEmail
	}
	for _, st := range m.stores {
		if st.Backend() == origin {
			continue
		}
		if err := m.propagate(ctx, st, account, lookup, createMissing); err != nil {
			m.log.Warn().Err(err).
				Str("backend", string(st.Backend())).
				Str("email", account.Email).
				Msg("account mirror propagation failed")
		}
	}
}

func (m *Mirror) propagate(ctx context.Context, st store.Store, account *models.Account, lookupEmail string, createMissing bool) error {
	existing, err := st.GetAccountByEmail(ctx, lookupEmail)
	if err != nil {
		return err
	}
	if existing == nil {
		if !createMissing {
			m.log.Debug().
				Str("backend", string(st.Backend())).
				Str("email", account.Email).
				Msg("no counterpart to mirror; left for lazy creation")
			return nil
		}
		return st.CreateAccount(ctx, mirrorCopy(account))
	}
	existing.Email = account.Email
	existing.PasswordHash = account.PasswordHash
	existing.Roles = account.Roles
	existing.Verified = account.Verified
	return st.UpdateAccount(ctx, existing)
}

// mirrorCopy clones the account's fields without its ID. The destination
// store assigns its own.
func mirrorCopy(account *models.Account) *models.Account {
	return &models.Account{
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Roles:        account.Roles,
		Verified:     account.Verified,
	}
}
