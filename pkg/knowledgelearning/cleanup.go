package knowledgelearning

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// Cleanup deletes accounts, detaching every reference to them first so the
// records they authored or own survive the deletion.
type Cleanup struct {
	log zerolog.Logger
}

// NewCleanup builds the cascade cleanup engine.
func NewCleanup(log zerolog.Logger) *Cleanup {
	return &Cleanup{log: log}
}

// DeleteAccount removes the account from every given store. The account is
// located per backend by the email natural key, its refs across lessons,
// courses, topics, payments, certifications and orders are nulled, and only
// then is the record deleted.
//
// Backend passes are independent: a failure in one is logged and does not
// stop the others. The deletion is reported successful when at least one
// backend completed; only a failure in every store returns an error.
func (c *Cleanup) DeleteAccount(ctx context.Context, stores []store.Store, email string) error {
	if len(stores) == 0 {
		return fmt.Errorf("%w: no active store", store.ErrValidation)
	}

	var deleted int
	var lastErr error
	for _, st := range stores {
		if err := c.deleteFrom(ctx, st, email); err != nil {
			lastErr = err
			c.log.Warn().Err(err).
				Str("backend", string(st.Backend())).
				Str("email", email).
				Msg("account delete failed in backend")
			continue
		}
		deleted++
	}
	if deleted == 0 {
		return fmt.Errorf("account delete failed in every backend: %w", lastErr)
	}
	return nil
}

func (c *Cleanup) deleteFrom(ctx context.Context, st store.Store, email string) error {
	account, err := st.GetAccountByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("%w: account %q", store.ErrNotFound, models.NormalizeEmail(email))
	}

	detached, err := st.ReleaseAccountRefs(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("failed to release account refs: %w", err)
	}
	if err := st.DeleteAccount(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	c.log.Info().
		Str("backend", string(st.Backend())).
		Str("email", account.Email).
		Int64("detached_refs", detached).
		Msg("account deleted")
	return nil
}
