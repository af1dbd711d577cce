package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hourstack-io/hourstack/internal/middleware"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/modules/service"
)

type ProjectHandler struct {
	svc service.ProjectService
}

func NewProjectHandler(svc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// GetProjects returns the projects visible to the caller: all projects for
// an administrator, assigned projects for a member.
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	projects, err := h.svc.List(c.Request.Context(), ident, profile.Role)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: projects})
}

type CreateProjectReq struct {
	Name string `form:"name" json:"name" binding:"required"`
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req := CreateProjectReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	ident := middleware.Identity(c)
	project, err := h.svc.Create(c.Request.Context(), service.CreateProjectInput{
		Name:    req.Name,
		Creator: *ident,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: project})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	project, err := h.svc.Get(c.Request.Context(), ident, profile.Role, c.Param("project_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: project})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("project_id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	if err := h.svc.AddMember(c.Request.Context(), c.Param("project_id"), c.Param("user_id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("project_id"), c.Param("user_id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
