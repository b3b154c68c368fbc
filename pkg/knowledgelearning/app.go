// Package knowledgelearning is the application layer of the Knowledge
// Learning platform: an e-learning catalog with per-lesson and per-course
// purchases, topic certifications, and account identity mirrored across a
// relational (PostgreSQL) and a document (SurrealDB) backend.
//
// The platform runs in one of three store modes: relational only, document
// only, or both at once. Every engine (cart, checkout, entitlement,
// certification, cleanup) is written once against the store interface and
// instantiated per backend; only the identity mirror holds both stores.
package knowledgelearning

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store/postgres"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store/surreal"
)

func init() {
	// Carts travel inside session cookies.
	gob.Register(&Cart{})
}

// App holds the application state: one store per active backend, the
// identity mirror when both run, and the session store backing auth and
// carts.
type App struct {
	config     *Config
	log        zerolog.Logger
	relational store.Store
	document   store.Store
	mirror     *Mirror
	sessions   *sessions.CookieStore
}

// New connects the stores selected by the configured mode and assembles the
// application.
func New(config *Config) (*App, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var relational, document store.Store

	if config.Mode == ModeRelational || config.Mode == ModeBoth {
		st, err := postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		relational = st
		logger.Info().Msg("connected to PostgreSQL")
	}

	if config.Mode == ModeDocument || config.Mode == ModeBoth {
		st, err := surreal.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		document = st
		logger.Info().Msg("connected to SurrealDB")
	}

	return NewWithStores(config, logger, relational, document), nil
}

// NewWithStores assembles the application over already-constructed stores.
// Tests inject in-memory stores here.
func NewWithStores(config *Config, logger zerolog.Logger, relational, document store.Store) *App {
	app := &App{
		config:     config,
		log:        logger,
		relational: relational,
		document:   document,
		sessions:   sessions.NewCookieStore([]byte(config.SessionKey)),
	}
	if relational != nil && document != nil {
		app.mirror = NewMirror(logger, relational, document)
	}
	return app
}

// Close closes every active store.
func (a *App) Close() error {
	var firstErr error
	for _, st := range a.stores() {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// stores returns the active backends, relational first.
func (a *App) stores() []store.Store {
	var out []store.Store
	if a.relational != nil {
		out = append(out, a.relational)
	}
	if a.document != nil {
		out = append(out, a.document)
	}
	return out
}

// storeFor returns the active store for a backend, or nil when that backend
// is not running.
func (a *App) storeFor(backend store.Backend) store.Store {
	switch backend {
	case store.BackendRelational:
		return a.relational
	case store.BackendDocument:
		return a.document
	}
	return nil
}

// primaryStore is the backend that owns authentication lookups: relational
// when active, otherwise document.
func (a *App) primaryStore() store.Store {
	if a.relational != nil {
		return a.relational
	}
	return a.document
}

// Migrate runs schema migration on every active store.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	for _, st := range a.stores() {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate %s store: %w", st.Backend(), err)
		}
		a.log.Info().Str("backend", string(st.Backend())).Msg("migrated store")
	}
	return nil
}
