package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lite/internal/domains/loan/model"
	"library-lite/internal/domains/loan/service"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

type LoanHandler struct {
	service service.ServiceInterface
}

func NewLoanHandler(service service.ServiceInterface) *LoanHandler {
	return &LoanHandler{service: service}
}

// Borrow handles POST /loans/borrow
func (h *LoanHandler) Borrow(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req model.BorrowRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	loan, err := h.service.Borrow(c.Request.Context(), actor, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, loan)
}

// Return handles POST /loans/return
func (h *LoanHandler) Return(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req model.ReturnRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	result, err := h.service.Return(c.Request.Context(), actor, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ListLoans handles GET /loans (librarian)
// Query: userId, bookId, status, sortBy, order, page, limit
func (h *LoanHandler) ListLoans(c *gin.Context) {
	userID, err := utils.ParseOptionalUUIDQuery(c, "userId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	bookID, err := utils.ParseOptionalUUIDQuery(c, "bookId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	page, limit := utils.ParsePagination(c)

	loans, total, err := h.service.ListLoans(c.Request.Context(), model.ListFilter{
		UserID: userID,
		BookID: bookID,
		Status: c.Query("status"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, loans, response.NewMeta(page, limit, total))
}

// ListOverdue handles GET /loans/overdue (librarian)
func (h *LoanHandler) ListOverdue(c *gin.Context) {
	loans, err := h.service.ListOverdue(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, loans)
}

// GetLoan handles GET /loans/:id
func (h *LoanHandler) GetLoan(c *gin.Context) {
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

	loan, err := h.service.GetLoan(c.Request.Context(), actor, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, loan)
}

// ListUserLoans handles GET /loans/user/:userId
func (h *LoanHandler) ListUserLoans(c *gin.Context) {
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

	loans, err := h.service.ListUserLoans(c.Request.Context(), actor, userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, loans)
}
