package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/middleware"
	"github.com/minikapp/minik/internal/store"
)

const sessionTTL = 30 * 24 * time.Hour

type AuthHandler struct {
	users    *store.UserStore
	families *store.FamilyStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, fs *store.FamilyStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, families: fs, sessions: ss, logger: logger}
}

type registerRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	FamilyName string `json:"family_name"`
}

// Register creates a user, a family, and a parent membership in one shot.
// The first registered account of a family is always its parent.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.FamilyName = strings.TrimSpace(req.FamilyName)

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.FamilyName == "" {
		writeError(w, http.StatusBadRequest, "family_name is required")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	family, err := h.families.Create(req.FamilyName)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := h.families.AddMember(family.ID, user.ID, "parent"); err != nil {
		h.logger.Error("add family member", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sess, err := h.sessions.Create(user.ID, family.ID, sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":   user,
		"family": family,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	familyID, err := h.families.FamilyIDForUser(user.ID)
	if err != nil {
		h.logger.Error("login family lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if familyID == 0 {
		writeError(w, http.StatusForbidden, "account has no family")
		return
	}

	sess, err := h.sessions.Create(user.ID, familyID, sessionTTL)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	setSessionCookie(w, r, sess.Token)

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user and their family role.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.users.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"family_id": ac.FamilyID,
		"role":      ac.Role,
	})
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
