package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hourstack-io/hourstack/internal/middleware"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/modules/service"
	"github.com/hourstack-io/hourstack/internal/timesheet"
)

type EntryHandler struct {
	svc service.EntryService
}

func NewEntryHandler(svc service.EntryService) *EntryHandler {
	return &EntryHandler{svc: svc}
}

// GetEntries lists a project's time entries scoped to the caller's role:
// administrators see every entry, members only their own.
func (h *EntryHandler) GetEntries(c *gin.Context) {
	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	entries, err := h.svc.List(c.Request.Context(), ident, profile.Role, c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: entries})
}

type CreateEntryReq struct {
	Date  string `form:"date" json:"date" binding:"required,workdate"`
	Task  string `form:"task" json:"task" binding:"required"`
	Hours string `form:"hours" json:"hours" binding:"required"`
}

func (h *EntryHandler) CreateEntry(c *gin.Context) {
	req := CreateEntryReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	entry, err := h.svc.Create(c.Request.Context(), service.CreateEntryInput{
		ProjectID: c.Param("project_id"),
		Date:      req.Date,
		Task:      req.Task,
		Hours:     req.Hours,
		User:      *ident,
		Role:      profile.Role,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: entry})
}

func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	profile := middleware.Profile(c)

	if err := h.svc.Delete(c.Request.Context(), c.Param("entry_id"), profile); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

// GetSummary returns the derived timesheet view for a project: entry count,
// total hours, and earnings at the caller's hourly rate. rate_set is false
// when no rate is configured, which is not the same as a rate of zero.
func (h *EntryHandler) GetSummary(c *gin.Context) {
	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	summary, err := h.svc.Summary(c.Request.Context(), ident, profile.Role,
		c.Param("project_id"), timesheet.RateOf(profile.HourlyRate))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: summary})
}
