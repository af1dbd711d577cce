package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hourstack-io/hourstack/internal/middleware"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/modules/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetMe returns the caller's stored profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, serializer.Response{Data: middleware.Profile(c)})
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: users})
}

type UpdateRoleReq struct {
	Role string `form:"role" json:"role" binding:"required,oneof=admin member"`
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	req := UpdateRoleReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.UpdateRole(c.Request.Context(), c.Param("user_id"), req.Role); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

type UpdateRateReq struct {
	// A null rate clears the configured hourly rate rather than setting zero.
	HourlyRate *float64 `form:"hourly_rate" json:"hourly_rate"`
}

func (h *UserHandler) UpdateRate(c *gin.Context) {
	req := UpdateRateReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.UpdateRate(c.Request.Context(), c.Param("user_id"), req.HourlyRate); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
