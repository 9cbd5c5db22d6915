package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lite/internal/domains/member/model"
	"library-lite/internal/domains/member/service"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

type MemberHandler struct {
	service service.ServiceInterface
}

func NewMemberHandler(service service.ServiceInterface) *MemberHandler {
	return &MemberHandler{service: service}
}

// ListMembers handles GET /members (librarian)
// Query: search, status, membershipType, page, limit
func (h *MemberHandler) ListMembers(c *gin.Context) {
	page, limit := utils.ParsePagination(c)
	members, total, err := h.service.ListMembers(c.Request.Context(), model.ListFilter{
		Search:         c.Query("search"),
		Status:         c.Query("status"),
		MembershipType: c.Query("membershipType"),
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, members, response.NewMeta(page, limit, total))
}

// GetMember handles GET /members/:id
func (h *MemberHandler) GetMember(c *gin.Context) {
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
	member, err := h.service.GetMember(c.Request.Context(), actor, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// CreateMember handles POST /members (librarian)
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req model.CreateMemberRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	member, err := h.service.CreateMember(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, member)
}

// UpdateMember handles PUT /members/:id (librarian)
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req model.UpdateMemberRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	member, err := h.service.UpdateMember(c.Request.Context(), id, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, member)
}

// DeleteMember handles DELETE /members/:id (admin)
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	id, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.service.DeleteMember(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Member deleted successfully"})
}
