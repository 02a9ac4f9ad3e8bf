package auth

import (
	"log/slog"
	"net/http"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/identity"
)

// RBACAuthorization wraps the permission evaluator as chi middleware. Each
// Require* gate assumes AuthMiddleware already placed the user in context.
type RBACAuthorization struct {
	evaluator *Evaluator
	logger    *slog.Logger
}

func NewRBACAuthorization(evaluator *Evaluator, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		evaluator: evaluator,
		logger:    logger,
	}
}

func (ra *RBACAuthorization) require(name string, allowed func(*identity.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context", "gate", name)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !allowed(user) {
				ra.logger.WarnContext(r.Context(), "access denied",
					"gate", name,
					"user_id", user.ID,
					"roles", user.Roles)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAppAccess is the layer-1 gate applied to every authenticated
// route group: profile plus at least one group, or superuser.
func (ra *RBACAuthorization) RequireAppAccess() func(http.Handler) http.Handler {
	return ra.require("app_access", ra.evaluator.HasAppAccess)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.require("admin", ra.evaluator.IsAdmin)
}

// RequirePendingUserManager gates pending-user triage and all
// registration review actions.
func (ra *RBACAuthorization) RequirePendingUserManager() func(http.Handler) http.Handler {
	return ra.require("pending_user_manager", ra.evaluator.CanManagePendingUsers)
}

// RequireSystemUserAccess gates the ministry-level user directory.
func (ra *RBACAuthorization) RequireSystemUserAccess() func(http.Handler) http.Handler {
	return ra.require("system_user_access", ra.evaluator.CanAccessSystemUsers)
}
