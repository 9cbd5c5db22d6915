package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-lite/internal/domains/activity/model"
	"library-lite/internal/domains/activity/service"
	"library-lite/internal/shared/apperror"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

type ActivityHandler struct {
	service service.ServiceInterface
}

func NewActivityHandler(service service.ServiceInterface) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// ListActivityLogs handles GET /admin/activity-logs (admin)
// Query: userId, action, from, to (RFC3339), page, limit
func (h *ActivityHandler) ListActivityLogs(c *gin.Context) {
	userID, err := utils.ParseOptionalUUIDQuery(c, "userId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		response.Fail(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		response.Fail(c, err)
		return
	}

	page, limit := utils.ParsePagination(c)
	logs, total, err := h.service.List(c.Request.Context(), model.ListFilter{
		UserID: userID,
		Action: c.Query("action"),
		From:   from,
		To:     to,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, response.NewMeta(page, limit, total))
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.Validation("VALIDATION_ERROR", "Invalid "+name+", expected RFC3339")
	}
	return &t, nil
}
