package knowledgelearning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Router assembles the HTTP routes. Handlers resolving catalog records
// accept an optional "backend" query parameter (relational | document)
// selecting which active store serves the request; it defaults to the
// relational store when both run.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	// Auth
	api.HandleFunc("/auth/signup", a.handleSignUp).Methods("POST")
	api.HandleFunc("/auth/signin", a.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
	api.HandleFunc("/auth/me", a.handleGetCurrentUser).Methods("GET")
	api.HandleFunc("/auth/me", a.handleUpdateCurrentUser).Methods("PUT")

	// Catalog
	api.HandleFunc("/topics", a.handleCreateTopic).Methods("POST")
	api.HandleFunc("/topics/{id}", a.handleGetTopic).Methods("GET")
	api.HandleFunc("/topics/{id}", a.handleUpdateTopic).Methods("PUT")
	api.HandleFunc("/topics/{id}", a.handleDeleteTopic).Methods("DELETE")
	api.HandleFunc("/topics/{topicId}/courses", a.handleListCourses).Methods("GET")

	api.HandleFunc("/courses", a.handleCreateCourse).Methods("POST")
	api.HandleFunc("/courses/{id}", a.handleGetCourse).Methods("GET")
	api.HandleFunc("/courses/{id}", a.handleUpdateCourse).Methods("PUT")
	api.HandleFunc("/courses/{id}", a.handleDeleteCourse).Methods("DELETE")
	api.HandleFunc("/courses/{courseId}/lessons", a.handleListLessons).Methods("GET")

	api.HandleFunc("/lessons", a.handleCreateLesson).Methods("POST")
	api.HandleFunc("/lessons/{id}", a.handleGetLesson).Methods("GET")
	api.HandleFunc("/lessons/{id}", a.handleUpdateLesson).Methods("PUT")
	api.HandleFunc("/lessons/{id}", a.handleDeleteLesson).Methods("DELETE")
	api.HandleFunc("/lessons/{id}/complete", a.handleCompleteLesson).Methods("POST")

	// Cart
	api.HandleFunc("/cart", a.handleGetCart).Methods("GET")
	api.HandleFunc("/cart/lessons/{id}", a.handleCartAddLesson).Methods("POST")
	api.HandleFunc("/cart/lessons/{id}", a.handleCartRemoveLesson).Methods("DELETE")
	api.HandleFunc("/cart/courses/{id}", a.handleCartAddCourse).Methods("POST")
	api.HandleFunc("/cart/courses/{id}", a.handleCartRemoveCourse).Methods("DELETE")

	// Checkout (payment gateway callbacks)
	api.HandleFunc("/checkout/success", a.handleCheckoutSuccess).Methods("POST")
	api.HandleFunc("/checkout/cancel", a.handleCheckoutCancel).Methods("POST")

	api.HandleFunc("/orders", a.handleListOrders).Methods("GET")
	api.HandleFunc("/certifications", a.handleListCertifications).Methods("GET")

	// Admin
	api.HandleFunc("/admin/accounts/{email}/verify", a.handleVerifyAccount).Methods("POST")
	api.HandleFunc("/admin/accounts/{email}", a.handleDeleteAccount).Methods("DELETE")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails. On cancellation in-flight requests get five seconds to
// drain.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().
		Str("addr", addr).
		Str("mode", string(a.config.Mode)).
		Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
