package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"kontor/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Guard проверяет Authorization: Bearer <token> на каждом защищённом
// запросе. Нет токена → 401, плохой/просроченный → 403. Идентичность
// кладётся в контекст запроса и не живёт дольше него.
func Guard(issuer *Issuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const p = "Bearer "
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, p) || strings.TrimPrefix(header, p) == "" {
				models.WriteProblem(w, http.StatusUnauthorized,
					models.CodeUnauthenticated, "Unauthenticated", "missing bearer token")
				return
			}
			id, err := issuer.Parse(strings.TrimPrefix(header, p))
			if err != nil {
				models.WriteProblem(w, http.StatusForbidden,
					models.CodeInvalidCredential, "Invalid Credential", "token is malformed, expired or unverifiable")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пускает дальше только административные роли.
// Вешается после Guard.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFrom(r)
		if id == nil || !IsAdmin(id.RoleID) {
			models.WriteProblem(w, http.StatusForbidden,
				models.CodeForbidden, "Forbidden", "administrative role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFrom достаёт идентичность текущего запроса; nil вне Guard.
func IdentityFrom(r *http.Request) *Identity {
	v := r.Context().Value(identityKey)
	if id, ok := v.(*Identity); ok {
		return id
	}
	return nil
}
