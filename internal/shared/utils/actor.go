package utils

import (
	"strings"

	"github.com/gin-gonic/gin"

	"library-lite/internal/shared"
	"library-lite/internal/shared/apperror"
)

// ActorKey là key của shared.Actor trong gin.Context, set bởi auth middleware
const ActorKey = "actor"

// GetActor lấy actor đã xác thực từ context
func GetActor(c *gin.Context) (shared.Actor, error) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return shared.Actor{}, apperror.Unauthorized("UNAUTHORIZED", "Authentication required")
	}
	actor, ok := v.(shared.Actor)
	if !ok {
		return shared.Actor{}, apperror.Unauthorized("UNAUTHORIZED", "Authentication required")
	}
	return actor, nil
}

// BearerToken đọc token từ header "Authorization: Bearer <token>"
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
