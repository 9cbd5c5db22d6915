package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	loanModel "library-lite/internal/domains/loan/model"
	"library-lite/internal/domains/report/service"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	service service.ServiceInterface
}

func NewReportHandler(service service.ServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// Overview handles GET /admin/reports (admin)
func (h *ReportHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, overview)
}

// LoanStats handles GET /admin/loans/stats (admin)
func (h *ReportHandler) LoanStats(c *gin.Context) {
	stats, err := h.service.LoanStats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// UserStats handles GET /admin/users/stats (admin)
func (h *ReportHandler) UserStats(c *gin.Context) {
	report, err := h.service.UserReport(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// BookStats handles GET /admin/books/stats (admin)
func (h *ReportHandler) BookStats(c *gin.Context) {
	report, err := h.service.BookReport(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ExportLoans handles GET /admin/loans/export (admin)
// Query: userId, bookId, status
func (h *ReportHandler) ExportLoans(c *gin.Context) {
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

	data, err := h.service.ExportLoans(c.Request.Context(), loanModel.ListFilter{
		UserID: userID,
		BookID: bookID,
		Status: c.Query("status"),
		SortBy: "borrowDate",
		Order:  "desc",
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="loans.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// UserDashboard handles GET /dashboard/user/:userId
func (h *ReportHandler) UserDashboard(c *gin.Context) {
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

	dash, err := h.service.UserDashboard(c.Request.Context(), actor, userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}
