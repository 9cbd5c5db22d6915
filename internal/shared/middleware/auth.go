package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"

	"library-lite/internal/shared"
	"library-lite/internal/shared/apperror"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

// Authenticator map bearer token -> actor (user service implement)
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*shared.Actor, error)
}

var (
	errMissingToken  = apperror.Unauthorized("UNAUTHORIZED", "Missing bearer token")
	errRoleForbidden = apperror.Forbidden("FORBIDDEN", "Insufficient role for this action")
)

// AuthMiddleware xác thực bearer token và set actor vào context.
// Keys: "actor" (shared.Actor), "user_id" (uuid.UUID), "role" (string)
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.BearerToken(c)
		if token == "" {
			response.Fail(c, errMissingToken)
			c.Abort()
			return
		}

		actor, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}

		c.Set(utils.ActorKey, *actor)
		c.Set("user_id", actor.UserID)
		c.Set("role", actor.Role)
		c.Next()
	}
}

// RequireRoles chặn request khi actor không có một trong các role. Chạy sau AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := utils.GetActor(c)
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}
		if !slices.Contains(roles, actor.Role) {
			response.Fail(c, errRoleForbidden.WithDetails(map[string]interface{}{"required": roles}))
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffOnly = librarian hoặc admin
func StaffOnly() gin.HandlerFunc {
	return RequireRoles(shared.RoleLibrarian, shared.RoleAdmin)
}

func AdminOnly() gin.HandlerFunc {
	return RequireRoles(shared.RoleAdmin)
}
