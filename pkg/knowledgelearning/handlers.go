package knowledgelearning

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

// backendFrom selects the store a request targets via the "backend" query
// parameter, defaulting to the primary store. Naming an inactive backend is
// a validation failure.
func (a *App) backendFrom(r *http.Request) (store.Store, error) {
	name := r.URL.Query().Get("backend")
	if name == "" {
		return a.primaryStore(), nil
	}
	st := a.storeFor(store.Backend(name))
	if st == nil {
		return nil, fmt.Errorf("%w: backend %q is not active", store.ErrValidation, name)
	}
	return st, nil
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	backends := make([]string, 0, 2)
	for _, st := range a.stores() {
		backends = append(backends, string(st.Backend()))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"mode":     a.config.Mode,
		"backends": backends,
	})
}

// Topic handlers

func (a *App) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	admin, err := a.requireAdmin(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	var topic models.Topic
	if err := json.NewDecoder(r.Body).Decode(&topic); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if topic.Name == "" {
		a.respondError(w, fmt.Errorf("%w: topic name is required", store.ErrValidation))
		return
	}
	adminID := admin.ID
	topic.CreatedBy = &adminID
	topic.UpdatedBy = &adminID

	if err := st.CreateTopic(r.Context(), &topic); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, topic)
}

func (a *App) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseTopicID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	topic, err := st.GetTopic(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if topic == nil {
		a.respondError(w, fmt.Errorf("%w: topic %s", store.ErrNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, topic)
}

func (a *App) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	admin, err := a.requireAdmin(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseTopicID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	topic, err := st.GetTopic(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if topic == nil {
		a.respondError(w, fmt.Errorf("%w: topic %s", store.ErrNotFound, id))
		return
	}

	var update models.Topic
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if update.Name != "" {
		topic.Name = update.Name
	}
	adminID := admin.ID
	topic.UpdatedBy = &adminID

	if err := st.UpdateTopic(r.Context(), topic); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, topic)
}

func (a *App) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAdmin(r); err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseTopicID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if err := st.DeleteTopic(r.Context(), id); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Course handlers

func (a *App) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	admin, err := a.requireAdmin(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	var course models.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if course.Title == "" || course.TopicID.IsZero() {
		a.respondError(w, fmt.Errorf("%w: course title and topic_id are required", store.ErrValidation))
		return
	}
	adminID := admin.ID
	course.CreatedBy = &adminID
	course.UpdatedBy = &adminID

	if err := st.CreateCourse(r.Context(), &course); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, course)
}

func (a *App) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseCourseID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	course, err := st.GetCourse(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if course == nil {
		a.respondError(w, fmt.Errorf("%w: course %s", store.ErrNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, course)
}

func (a *App) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	admin, err := a.requireAdmin(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseCourseID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	course, err := st.GetCourse(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if course == nil {
		a.respondError(w, fmt.Errorf("%w: course %s", store.ErrNotFound, id))
		return
	}

	var update models.Course
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if update.Title != "" {
		course.Title = update.Title
	}
	if update.Price != 0 {
		course.Price = update.Price
	}
	if !update.TopicID.IsZero() {
		course.TopicID = update.TopicID
	}
	adminID := admin.ID
	course.UpdatedBy = &adminID

	if err := st.UpdateCourse(r.Context(), course); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, course)
}

func (a *App) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAdmin(r); err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseCourseID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if err := st.DeleteCourse(r.Context(), id); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *App) handleListCourses(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	topicID, err := models.ParseTopicID(mux.Vars(r)["topicId"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	courses, err := st.ListCourses(r.Context(), topicID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, courses)
}

// Lesson handlers

func (a *App) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	admin, err := a.requireAdmin(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	var lesson models.Lesson
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if lesson.Title == "" || lesson.CourseID.IsZero() {
		a.respondError(w, fmt.Errorf("%w: lesson title and course_id are required", store.ErrValidation))
		return
	}
	adminID := admin.ID
	lesson.CreatedBy = &adminID
	lesson.UpdatedBy = &adminID

	if err := st.CreateLesson(r.Context(), &lesson); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, lesson)
}

// handleGetLesson serves the lesson content. Access requires a direct grant
// or current membership in a granted course; admins read everything.
func (a *App) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseLessonID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}

	if !account.Roles.Has(models.RoleAdmin) {
		local, err := a.accountIn(r, st, account)
		if err != nil {
			a.respondError(w, err)
			return
		}
		entitled := false
		if local != nil {
			entitled, err = IsEntitled(r.Context(), st, local.ID, id)
			if err != nil {
				a.respondError(w, err)
				return
			}
		}
		if !entitled {
			a.respondError(w, fmt.Errorf("%w: lesson not purchased", store.ErrAccessDenied))
			return
		}
	}

	lesson, err := st.GetLesson(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if lesson == nil {
		a.respondError(w, fmt.Errorf("%w: lesson %s", store.ErrNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, lesson)
}

func (a *App) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	admin, err := a.requireAdmin(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseLessonID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	lesson, err := st.GetLesson(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if lesson == nil {
		a.respondError(w, fmt.Errorf("%w: lesson %s", store.ErrNotFound, id))
		return
	}

	var update models.Lesson
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if update.Title != "" {
		lesson.Title = update.Title
	}
	if update.Body != "" {
		lesson.Body = update.Body
	}
	if update.Price != 0 {
		lesson.Price = update.Price
	}
	if update.VideoURL != "" {
		lesson.VideoURL = update.VideoURL
	}
	if !update.CourseID.IsZero() {
		lesson.CourseID = update.CourseID
	}
	adminID := admin.ID
	lesson.UpdatedBy = &adminID

	if err := st.UpdateLesson(r.Context(), lesson); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lesson)
}

func (a *App) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAdmin(r); err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseLessonID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if err := st.DeleteLesson(r.Context(), id); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *App) handleListLessons(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	courseID, err := models.ParseCourseID(mux.Vars(r)["courseId"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	lessons, err := st.ListLessons(r.Context(), courseID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lessons)
}

// accountIn resolves the session account's record in a specific backend by
// email. Returns (nil, nil) when that backend has not seen the account yet.
func (a *App) accountIn(r *http.Request, st store.Store, account *models.Account) (*models.Account, error) {
	if st == a.primaryStore() {
		return account, nil
	}
	return st.GetAccountByEmail(r.Context(), account.Email)
}

// Cart handlers

// loadCart reads the backend's cart out of the session, returning an empty
// cart when none is stored yet.
func (a *App) loadCart(r *http.Request, backend store.Backend) *Cart {
	session, _ := a.sessions.Get(r, sessionName)
	if cart, ok := session.Values[cartKeyFor(backend)].(*Cart); ok {
		return cart
	}
	return &Cart{}
}

func (a *App) saveCart(w http.ResponseWriter, r *http.Request, backend store.Backend, cart *Cart) error {
	session, _ := a.sessions.Get(r, sessionName)
	session.Values[cartKeyFor(backend)] = cart
	return session.Save(r, w)
}

func (a *App) handleCartAddLesson(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAccount(r); err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseLessonID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	lesson, err := st.GetLesson(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if lesson == nil {
		a.respondError(w, fmt.Errorf("%w: lesson %s", store.ErrNotFound, id))
		return
	}

	cart := a.loadCart(r, st.Backend())
	cart.AddLesson(id)
	if err := a.saveCart(w, r, st.Backend(), cart); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (a *App) handleCartAddCourse(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAccount(r); err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseCourseID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	course, err := st.GetCourse(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if course == nil {
		a.respondError(w, fmt.Errorf("%w: course %s", store.ErrNotFound, id))
		return
	}

	cart := a.loadCart(r, st.Backend())
	cart.AddCourse(id)
	if err := a.saveCart(w, r, st.Backend(), cart); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (a *App) handleCartRemoveLesson(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseLessonID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	cart := a.loadCart(r, st.Backend())
	cart.RemoveLesson(id)
	if err := a.saveCart(w, r, st.Backend(), cart); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (a *App) handleCartRemoveCourse(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseCourseID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	cart := a.loadCart(r, st.Backend())
	cart.RemoveCourse(id)
	if err := a.saveCart(w, r, st.Backend(), cart); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (a *App) handleGetCart(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a.loadCart(r, st.Backend()))
}

// Checkout handlers

// handleCheckoutSuccess is the payment gateway's success callback. It
// fulfills the backend's cart for the signed-in account and clears the cart
// only once the order flush succeeded.
func (a *App) handleCheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	method := models.PaymentMethod(r.URL.Query().Get("method"))
	switch method {
	case models.PaymentMethodCard, models.PaymentMethodPaypal, models.PaymentMethodTransfer:
	case "":
		method = models.PaymentMethodCard
	default:
		a.respondError(w, fmt.Errorf("%w: unknown payment method %q", store.ErrValidation, method))
		return
	}

	cart := a.loadCart(r, st.Backend())
	checkout := NewCheckout(a.log)
	order, err := checkout.Fulfill(r.Context(), st, account, cart, method)
	if err != nil {
		a.respondError(w, err)
		return
	}

	cart.Clear()
	if err := a.saveCart(w, r, st.Backend(), cart); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// handleCheckoutCancel is the gateway's cancel callback. The cart survives
// untouched so the purchase can be retried.
func (a *App) handleCheckoutCancel(w http.ResponseWriter, r *http.Request) {
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "cancelled",
		"cart":   a.loadCart(r, st.Backend()),
	})
}

func (a *App) handleListOrders(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	local, err := a.accountIn(r, st, account)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if local == nil {
		respondJSON(w, http.StatusOK, []*models.Order{})
		return
	}
	orders, err := st.ListOrders(r.Context(), local.ID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Completion and certification handlers

// handleCompleteLesson records a lesson completion: the lesson must already
// be accessible to the account, the direct grant is (re)asserted, and the
// lesson's owning topic is evaluated for certification.
func (a *App) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	id, err := models.ParseLessonID(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}

	local, err := a.accountIn(r, st, account)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if local == nil {
		a.respondError(w, fmt.Errorf("%w: lesson not purchased", store.ErrAccessDenied))
		return
	}
	entitled, err := IsEntitled(r.Context(), st, local.ID, id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if !entitled {
		a.respondError(w, fmt.Errorf("%w: lesson not purchased", store.ErrAccessDenied))
		return
	}

	lesson, err := st.GetLesson(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if lesson == nil {
		a.respondError(w, fmt.Errorf("%w: lesson %s", store.ErrNotFound, id))
		return
	}
	if err := st.GrantLesson(r.Context(), local.ID, lesson.ID); err != nil {
		a.respondError(w, err)
		return
	}

	course, err := st.GetCourse(r.Context(), lesson.CourseID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if course == nil {
		a.respondError(w, fmt.Errorf("%w: course %s", store.ErrNotFound, lesson.CourseID))
		return
	}

	certifier := NewCertifier(a.log)
	cert, err := certifier.Evaluate(r.Context(), st, local.ID, course.TopicID)
	if err != nil {
		a.respondError(w, err)
		return
	}

	resp := map[string]any{"status": "completed"}
	if cert != nil {
		resp["certification"] = cert
	}
	respondJSON(w, http.StatusOK, resp)
}

func (a *App) handleListCertifications(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	st, err := a.backendFrom(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	local, err := a.accountIn(r, st, account)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if local == nil {
		respondJSON(w, http.StatusOK, []*models.Certification{})
		return
	}
	certs, err := st.ListCertifications(r.Context(), local.ID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, certs)
}

// Admin handlers

// handleVerifyAccount marks an account verified, unlocking checkout for it.
func (a *App) handleVerifyAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAdmin(r); err != nil {
		a.respondError(w, err)
		return
	}
	email := mux.Vars(r)["email"]
	account, err := a.primaryStore().GetAccountByEmail(r.Context(), email)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if account == nil {
		a.respondError(w, fmt.Errorf("%w: account %q", store.ErrNotFound, email))
		return
	}
	account.Verified = true
	if err := a.primaryStore().UpdateAccount(r.Context(), account); err != nil {
		a.respondError(w, err)
		return
	}
	if a.mirror != nil {
		a.mirror.AccountSaved(r.Context(), a.primaryStore().Backend(), account, "")
	}
	respondJSON(w, http.StatusOK, account)
}

// handleDeleteAccount is the admin account-delete endpoint. It demands the
// configured confirmation token in the X-Confirm-Token header, then runs
// cascade cleanup and deletion in the requested backends.
func (a *App) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := a.requireAdmin(r); err != nil {
		a.respondError(w, err)
		return
	}
	if a.config.AdminDeleteToken == "" || r.Header.Get("X-Confirm-Token") != a.config.AdminDeleteToken {
		a.respondError(w, fmt.Errorf("%w: missing or invalid confirmation token", store.ErrAccessDenied))
		return
	}

	var targets []store.Store
	switch backend := r.URL.Query().Get("backend"); backend {
	case "", string(ModeBoth):
		targets = a.stores()
	default:
		st := a.storeFor(store.Backend(backend))
		if st == nil {
			a.respondError(w, fmt.Errorf("%w: backend %q is not active", store.ErrValidation, backend))
			return
		}
		targets = []store.Store{st}
	}

	cleanup := NewCleanup(a.log)
	if err := cleanup.DeleteAccount(r.Context(), targets, mux.Vars(r)["email"]); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
