package middleware

import (
	"net/http"

	"github.com/minikapp/minik/internal/auth"
	"github.com/minikapp/minik/internal/store"
)

const SessionCookieName = "minik_session"

// RequireAuth validates the session cookie, confirms the user is still a
// member of the session's family, and populates the auth context. API
// clients get a JSON 401 rather than a redirect.
func RequireAuth(sessions *store.SessionStore, families *store.FamilyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			member, err := families.GetMember(sess.FamilyID, sess.UserID)
			if err != nil || member == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				FamilyID:  sess.FamilyID,
				Role:      member.Role,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireParent restricts an endpoint to the parent role.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsParent(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
