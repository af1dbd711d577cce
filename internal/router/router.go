package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/config"
	"github.com/hourstack-io/hourstack/internal/infra/authn"
	"github.com/hourstack-io/hourstack/internal/middleware"
	"github.com/hourstack-io/hourstack/internal/modules/handler"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/modules/service"
)

type RouterDeps struct {
	Config         *config.Config
	Log            *zap.Logger
	AuthClient     authn.Client
	UserService    service.UserService
	ProjectHandler *handler.ProjectHandler
	EntryHandler   *handler.EntryHandler
	UserHandler    *handler.UserHandler
	WatchHandler   *handler.WatchHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	serializer.SetLogger(d.Log)

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	v1 := r.Group("/api/v1")
	{
		v1.Use(middleware.UserAuth(d.AuthClient, d.UserService, d.Log))

		v1.GET("/me", d.UserHandler.GetMe)

		project := v1.Group("/projects")
		{
			project.GET("", d.ProjectHandler.GetProjects)
			project.GET("/watch", d.WatchHandler.WatchProjects)
			project.GET("/:project_id", d.ProjectHandler.GetProject)

			project.GET("/:project_id/entries", d.EntryHandler.GetEntries)
			project.POST("/:project_id/entries", d.EntryHandler.CreateEntry)
			project.GET("/:project_id/entries/watch", d.WatchHandler.WatchEntries)
			project.GET("/:project_id/timesheet", d.EntryHandler.GetSummary)
		}

		v1.DELETE("/entries/:entry_id", d.EntryHandler.DeleteEntry)

		admin := v1.Group("")
		{
			admin.Use(middleware.AdminOnly())

			admin.POST("/projects", d.ProjectHandler.CreateProject)
			admin.DELETE("/projects/:project_id", d.ProjectHandler.DeleteProject)
			admin.PUT("/projects/:project_id/members/:user_id", d.ProjectHandler.AddMember)
			admin.DELETE("/projects/:project_id/members/:user_id", d.ProjectHandler.RemoveMember)

			admin.GET("/users", d.UserHandler.GetUsers)
			admin.PUT("/users/:user_id/role", d.UserHandler.UpdateRole)
			admin.PUT("/users/:user_id/rate", d.UserHandler.UpdateRate)
		}
	}

	return r
}
