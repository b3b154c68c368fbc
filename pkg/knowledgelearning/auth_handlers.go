package knowledgelearning

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/models"
	"github.com/Miguel-Hrc/knowledge-learning-sub000/pkg/store"
)

const sessionName = "kl_session"

// SignUpRequest is the registration payload.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the authentication payload.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateAccountRequest changes the signed-in account's email or password.
// Empty fields are left untouched.
type UpdateAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// currentAccount resolves the signed-in account from the session cookie,
// looked up by email in the primary store. Returns (nil, nil) when no one
// is signed in.
func (a *App) currentAccount(r *http.Request) (*models.Account, error) {
	session, err := a.sessions.Get(r, sessionName)
	if err != nil {
		return nil, nil
	}
	email, ok := session.Values["email"].(string)
	if !ok || email == "" {
		return nil, nil
	}
	return a.primaryStore().GetAccountByEmail(r.Context(), email)
}

// requireAccount is currentAccount with AccessDenied when unauthenticated.
func (a *App) requireAccount(r *http.Request) (*models.Account, error) {
	account, err := a.currentAccount(r)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: authentication required", store.ErrAccessDenied)
	}
	return account, nil
}

// requireAdmin resolves the signed-in account and checks the admin role.
func (a *App) requireAdmin(r *http.Request) (*models.Account, error) {
	account, err := a.requireAccount(r)
	if err != nil {
		return nil, err
	}
	if !account.Roles.Has(models.RoleAdmin) {
		return nil, fmt.Errorf("%w: admin role required", store.ErrAccessDenied)
	}
	return account, nil
}

func (a *App) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}
	if req.Email == "" || req.Password == "" {
		a.respondError(w, fmt.Errorf("%w: email and password are required", store.ErrValidation))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.respondError(w, err)
		return
	}

	roles := models.RoleSet{models.RoleStudent}
	if a.config.AdminEmail != "" && models.NormalizeEmail(req.Email) == models.NormalizeEmail(a.config.AdminEmail) {
		roles = append(roles, models.RoleAdmin)
	}

	account := &models.Account{
		Email:        req.Email,
		PasswordHash: string(hash),
		Roles:        roles,
	}
	if err := a.primaryStore().CreateAccount(r.Context(), account); err != nil {
		a.respondError(w, err)
		return
	}
	if a.mirror != nil {
		a.mirror.AccountSaved(r.Context(), a.primaryStore().Backend(), account, "")
	}

	session, _ := a.sessions.Get(r, sessionName)
	session.Values["email"] = account.Email
	if err := session.Save(r, w); err != nil {
		a.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, account)
}

func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}

	account, err := a.primaryStore().GetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if account == nil {
		a.respondError(w, fmt.Errorf("%w: invalid credentials", store.ErrAccessDenied))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		a.respondError(w, fmt.Errorf("%w: invalid credentials", store.ErrAccessDenied))
		return
	}

	session, _ := a.sessions.Get(r, sessionName)
	session.Values["email"] = account.Email
	if err := session.Save(r, w); err != nil {
		a.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, account)
}

func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	session, _ := a.sessions.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (a *App) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// handleUpdateCurrentUser changes the signed-in account's email or
// password. On an email change the pre-change address is handed to the
// mirror so the counterpart record can still be located, and the session
// is rewritten under the new address.
func (a *App) handleUpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	account, err := a.requireAccount(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, fmt.Errorf("%w: %s", store.ErrValidation, err))
		return
	}

	priorEmail := ""
	if req.Email != "" && models.NormalizeEmail(req.Email) != account.Email {
		priorEmail = account.Email
		account.Email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			a.respondError(w, err)
			return
		}
		account.PasswordHash = string(hash)
	}

	if err := a.primaryStore().UpdateAccount(r.Context(), account); err != nil {
		a.respondError(w, err)
		return
	}
	if a.mirror != nil {
		a.mirror.AccountSaved(r.Context(), a.primaryStore().Backend(), account, priorEmail)
	}

	session, _ := a.sessions.Get(r, sessionName)
	session.Values["email"] = account.Email
	if err := session.Save(r, w); err != nil {
		a.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, account)
}
