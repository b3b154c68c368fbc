package knowledgelearning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store/storetest"
)

func newTestApp(t *testing.T) (*App, *httptest.Server, *storetest.MemStore, *storetest.MemStore) {
	t.Helper()
	rel := storetest.NewMemStore(store.BackendRelational)
	doc := storetest.NewMemStore(store.BackendDocument)
	cfg := &Config{
		Mode:             ModeBoth,
		SessionKey:       "test-session-key",
		AdminEmail:       "admin@example.com",
		AdminDeleteToken: "confirm-delete",
	}
	app := NewWithStores(cfg, zerolog.Nop(), rel, doc)
	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)
	return app, server, rel, doc
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// Registration writes only the primary store; the secondary gets its record
// lazily at the account's first purchase against it.
func TestSignUpLeavesSecondaryForLazyCreation(t *testing.T) {
	_, server, rel, doc := newTestApp(t)
	client := newClient(t)

	var account models.Account
	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "jane@example.com", Password: "secret"}, &account)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	relSide, err := rel.GetAccountByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, relSide)
	docSide, err := doc.GetAccountByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Nil(t, docSide)
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	_, server, _, _ := newTestApp(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "jane@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, newClient(t), http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "jane@example.com", Password: "other"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	_, server, _, _ := newTestApp(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "student@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, server.URL+"/api/topics",
		map[string]string{"name": "Music"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// Full flow over both backends: admin builds the catalog, a student buys a
// course in the relational backend and a single lesson in the document
// backend, completes everything and earns one certification per backend.
func TestPurchaseAndCertificationFlow(t *testing.T) {
	_, server, rel, doc := newTestApp(t)

	admin := newClient(t)
	resp := doJSON(t, admin, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "admin@example.com", Password: "admin-secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Build the same catalog in both backends; ids are store-scoped, so
	// the two sides are unrelated records.
	type side struct {
		backend string
		topic   models.Topic
		course  models.Course
		lesson  models.Lesson
	}
	sides := []*side{{backend: "relational"}, {backend: "document"}}
	for _, s := range sides {
		q := "?backend=" + s.backend
		resp = doJSON(t, admin, http.MethodPost, server.URL+"/api/topics"+q,
			map[string]any{"name": "Music"}, &s.topic)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp = doJSON(t, admin, http.MethodPost, server.URL+"/api/courses"+q,
			map[string]any{"title": "Guitar", "price": 50.0, "topic_id": s.topic.ID}, &s.course)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp = doJSON(t, admin, http.MethodPost, server.URL+"/api/lessons"+q,
			map[string]any{"title": "Chords", "price": 20.0, "course_id": s.course.ID}, &s.lesson)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	assert.NotEqual(t, sides[0].lesson.ID, sides[1].lesson.ID)

	student := newClient(t)
	resp = doJSON(t, student, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "student@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unverified accounts cannot check out.
	resp = doJSON(t, student, http.MethodPost,
		server.URL+"/api/cart/courses/"+sides[0].course.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, student, http.MethodPost, server.URL+"/api/checkout/success?method=card", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, admin, http.MethodPost,
		server.URL+"/api/admin/accounts/student@example.com/verify", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Relational purchase: the whole course.
	var order models.Order
	resp = doJSON(t, student, http.MethodPost, server.URL+"/api/checkout/success?method=card", nil, &order)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 50.0, order.Items[0].Price, 1e-9)

	// Cart cleared only after the successful flush.
	var cart Cart
	resp = doJSON(t, student, http.MethodGet, server.URL+"/api/cart", nil, &cart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cart.Empty())

	// Lesson accessible through live course membership.
	resp = doJSON(t, student, http.MethodGet,
		server.URL+"/api/lessons/"+sides[0].lesson.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Completing the only lesson certifies the topic.
	var completion struct {
		Status        string                `json:"status"`
		Certification *models.Certification `json:"certification"`
	}
	resp = doJSON(t, student, http.MethodPost,
		server.URL+"/api/lessons/"+sides[0].lesson.ID.String()+"/complete", nil, &completion)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, completion.Certification)
	assert.True(t, completion.Certification.Obtained)

	// Document-side purchase of the single lesson; the account record
	// there did not exist until now and is mirrored lazily with its own ID.
	docURL := "?backend=document"
	docSide, err := doc.GetAccountByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	require.Nil(t, docSide)

	resp = doJSON(t, student, http.MethodPost,
		server.URL+"/api/cart/lessons/"+sides[1].lesson.ID.String()+docURL, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = doJSON(t, student, http.MethodPost,
		server.URL+"/api/checkout/success"+docURL+"&method=paypal", nil, &order)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	relSide, err := rel.GetAccountByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	docSide, err = doc.GetAccountByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	require.NotNil(t, docSide)
	assert.NotEqual(t, relSide.ID, docSide.ID)

	resp = doJSON(t, student, http.MethodPost,
		server.URL+"/api/lessons/"+sides[1].lesson.ID.String()+"/complete"+docURL, nil, &completion)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, completion.Certification)

	var certs []*models.Certification
	resp = doJSON(t, student, http.MethodGet, server.URL+"/api/certifications"+docURL, nil, &certs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, certs, 1)
}

func TestCheckoutCancelKeepsCart(t *testing.T) {
	_, server, rel, _ := newTestApp(t)

	seedCatalogApp := func() models.LessonID {
		topic := &models.Topic{Name: "Music"}
		require.NoError(t, rel.CreateTopic(context.Background(), topic))
		course := &models.Course{Title: "Guitar", Price: 50, TopicID: topic.ID}
		require.NoError(t, rel.CreateCourse(context.Background(), course))
		lesson := &models.Lesson{Title: "Chords", Price: 20, CourseID: course.ID}
		require.NoError(t, rel.CreateLesson(context.Background(), lesson))
		return lesson.ID
	}
	lessonID := seedCatalogApp()

	client := newClient(t)
	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "jane@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, server.URL+"/api/cart/lessons/"+lessonID.String(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, server.URL+"/api/checkout/cancel", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cart Cart
	resp = doJSON(t, client, http.MethodGet, server.URL+"/api/cart", nil, &cart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, cart.Lessons, 1)
}

func TestAdminDeleteAccountNeedsConfirmToken(t *testing.T) {
	_, server, rel, doc := newTestApp(t)

	admin := newClient(t)
	resp := doJSON(t, admin, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "admin@example.com", Password: "admin-secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	student := newClient(t)
	resp = doJSON(t, student, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "gone@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	target := server.URL + "/api/admin/accounts/gone@example.com?backend=both"

	req, err := http.NewRequest(http.MethodDelete, target, nil)
	require.NoError(t, err)
	resp, err = admin.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, target, nil)
	require.NoError(t, err)
	req.Header.Set("X-Confirm-Token", "confirm-delete")
	resp, err = admin.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	relSide, err := rel.GetAccountByEmail(context.Background(), "gone@example.com")
	require.NoError(t, err)
	assert.Nil(t, relSide)
	docSide, err := doc.GetAccountByEmail(context.Background(), "gone@example.com")
	require.NoError(t, err)
	assert.Nil(t, docSide)
}

func TestEmailChangePropagatesWithPriorEmail(t *testing.T) {
	_, server, _, doc := newTestApp(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, server.URL+"/api/auth/signup",
		SignUpRequest{Email: "old@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The document-side counterpart exists already, as after a purchase
	// against that backend.
	require.NoError(t, doc.CreateAccount(context.Background(),
		&models.Account{Email: "old@example.com", PasswordHash: "h"}))
	docBefore, err := doc.GetAccountByEmail(context.Background(), "old@example.com")
	require.NoError(t, err)
	require.NotNil(t, docBefore)

	resp = doJSON(t, client, http.MethodPut, server.URL+"/api/auth/me",
		UpdateAccountRequest{Email: "new@example.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	docAfter, err := doc.GetAccountByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, docAfter)
	assert.Equal(t, docBefore.ID, docAfter.ID)

	// The session follows the new address.
	var me models.Account
	resp = doJSON(t, client, http.MethodGet, server.URL+"/api/auth/me", nil, &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "new@example.com", me.Email)
}

func TestBackendSelectorRejectsInactive(t *testing.T) {
	rel := storetest.NewMemStore(store.BackendRelational)
	cfg := &Config{Mode: ModeRelational, SessionKey: "k"}
	app := NewWithStores(cfg, zerolog.Nop(), rel, nil)
	server := httptest.NewServer(app.Router())
	defer server.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/topics/%s?backend=document", server.URL, models.NewTopicID()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
