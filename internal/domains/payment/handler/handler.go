package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lite/internal/domains/payment/model"
	"library-lite/internal/domains/payment/service"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

type PaymentHandler struct {
	service service.ServiceInterface
}

func NewPaymentHandler(service service.ServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// PayFine handles POST /payments/payfine
func (h *PaymentHandler) PayFine(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req model.PayFineRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	payment, err := h.service.PayFine(c.Request.Context(), actor, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, payment)
}

// ListPayments handles GET /payments (librarian)
// Query: userId, loanId, status, page, limit
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, err := utils.ParseOptionalUUIDQuery(c, "userId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	loanID, err := utils.ParseOptionalUUIDQuery(c, "loanId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	page, limit := utils.ParsePagination(c)

	payments, total, err := h.service.ListPayments(c.Request.Context(), model.ListFilter{
		UserID: userID,
		LoanID: loanID,
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, payments, response.NewMeta(page, limit, total))
}

// GetPayment handles GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
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

	payment, err := h.service.GetPayment(c.Request.Context(), actor, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}

// UserHistory handles GET /payments/user/:userId
func (h *PaymentHandler) UserHistory(c *gin.Context) {
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

	history, err := h.service.UserHistory(c.Request.Context(), actor, userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, history)
}
