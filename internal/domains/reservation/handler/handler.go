package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lite/internal/domains/reservation/model"
	"library-lite/internal/domains/reservation/service"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

type ReservationHandler struct {
	service service.ServiceInterface
}

func NewReservationHandler(service service.ServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Reserve handles POST /loans/reserve
func (h *ReservationHandler) Reserve(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req model.ReserveRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	res, err := h.service.Reserve(c.Request.Context(), actor, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Cancel handles DELETE /reservations/:id
func (h *ReservationHandler) Cancel(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ListUserReservations handles GET /reservations/user/:userId?status=
func (h *ReservationHandler) ListUserReservations(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	userID, err := utils.ParseUUIDParam(c, "userId")
	if err != nil {
		response.Fail(c, err)
		return
	}

	list, err := h.service.ListByUser(c.Request.Context(), actor, userID, c.Query("status"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}
