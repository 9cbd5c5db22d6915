package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reportModel "library-lite/internal/domains/report/model"
	"library-lite/internal/domains/user/model"
	"library-lite/internal/domains/user/service"
	"library-lite/internal/shared"
	"library-lite/internal/shared/response"
	"library-lite/internal/shared/utils"
)

// DashboardReader cung cấp dashboard cho /auth/user
type DashboardReader interface {
	UserDashboard(ctx context.Context, actor shared.Actor, userID uuid.UUID) (*reportModel.UserDashboard, error)
}

type UserHandler struct {
	service   service.ServiceInterface
	dashboard DashboardReader
}

func NewUserHandler(service service.ServiceInterface, dashboard DashboardReader) *UserHandler {
	return &UserHandler{service: service, dashboard: dashboard}
}

// Signup handles POST /auth/signup
func (h *UserHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	result, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Login handles POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Logout handles POST /auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), utils.BearerToken(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// CurrentUser handles GET /auth/user
func (h *UserHandler) CurrentUser(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	data := gin.H{"user": user}
	if h.dashboard != nil {
		dashboard, err := h.dashboard.UserDashboard(c.Request.Context(), actor, actor.UserID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		data["dashboard"] = dashboard
	}
	response.Success(c, http.StatusOK, data)
}

// GetProfile handles GET /users/:id
func (h *UserHandler) GetProfile(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	userID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), actor, userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// UpdateProfile handles PUT /users/:id
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, err := utils.GetActor(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	userID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		response.Fail(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), actor, userID, &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
