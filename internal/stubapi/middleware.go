package stubapi

import (
	"context"
	"net/http"
	"slices"

	"clinic/internal/common"
	"clinic/internal/common/security"
	"clinic/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const userCtxKey contextKey = "user"

// Authenticator requires a verified bearer token whose user still exists
// and still holds the role the token was issued for.
// Run jwtauth.Verifier before it.
func (s *Server) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		user, err := s.store.FindUserByID(userID)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid user in token")
			return
		}
		role, err := security.GetUserRoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		if model.Role(role) != user.Role {
			common.RespondWithError(w, http.StatusUnauthorized, "Token role does not match user")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok || !slices.Contains(roles, user.Role) {
				common.RespondWithError(w, http.StatusForbidden, "Forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(model.User)
	return user, ok
}
