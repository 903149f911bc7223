package auth

import (
	"log/slog"
	"net/http"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler, logger *slog.Logger) *RBACAuthorization {
	if baseHandler == nil {
		baseHandler = transport.NewBaseHandler(logger)
	}
	return &RBACAuthorization{
		BaseHandler: baseHandler,
		logger:      logger,
	}
}

// RequireRoles lets the request through only when the actor's role is one of
// roles. Roles outside the known set never match.
func (ra *RBACAuthorization) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		if role.Valid() {
			allowed[role] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				ra.logger.WarnContext(r.Context(), "authorization check failed: actor not found in context")
				ra.HandleServiceError(w, r, internal.ErrInvalidToken)
				return
			}

			if _, permitted := allowed[actor.Role]; !permitted || !actor.Role.Valid() {
				ra.logger.WarnContext(r.Context(), "access denied: role not permitted",
					"user_id", actor.ID,
					"role", actor.Role,
					"required_roles", roles)
				ra.HandleServiceError(w, r, internal.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAnyRole() func(http.Handler) http.Handler {
	return ra.RequireRoles(AllRoles...)
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRoles(RoleManager, RoleAdmin)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(RoleAdmin)
}
