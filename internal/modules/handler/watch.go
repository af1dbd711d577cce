package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/livequery"
	"github.com/hourstack-io/hourstack/internal/middleware"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/scope"
)

// WatchHandler streams live query results over SSE. Each "snapshot" event
// carries the full result set, so a client can always replace its local view
// wholesale. A "failed" event means the retry budget is exhausted and the
// client should reconnect.
type WatchHandler struct {
	live *livequery.Manager
	log  *zap.Logger
}

func NewWatchHandler(live *livequery.Manager, log *zap.Logger) *WatchHandler {
	return &WatchHandler{live: live, log: log}
}

// WatchProjects streams the caller's visible projects.
func (h *WatchHandler) WatchProjects(c *gin.Context) {
	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	q := scope.ProjectsFor(ident, profile.Role)
	if q == nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("identity is required", nil))
		return
	}
	h.stream(c, q)
}

// WatchEntries streams a project's time entries scoped to the caller's role.
func (h *WatchHandler) WatchEntries(c *gin.Context) {
	ident := middleware.Identity(c)
	profile := middleware.Profile(c)

	q := scope.EntriesFor(ident, profile.Role, c.Param("project_id"))
	if q == nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("identity and project id are required", nil))
		return
	}
	h.stream(c, q)
}

type watchEvent struct {
	name string
	data any
}

func (h *WatchHandler) stream(c *gin.Context, q *docstore.Query) {
	events := make(chan watchEvent, 8)

	handle := h.live.Subscribe(c.Request.Context(), q,
		func(records []docstore.Record) {
			select {
			case events <- watchEvent{name: "snapshot", data: records}:
			case <-c.Request.Context().Done():
			}
		},
		func(err error) {
			h.log.Warn("live query gave up", zap.String("collection", q.Collection), zap.Error(err))
			select {
			case events <- watchEvent{name: "failed", data: gin.H{"error": err.Error()}}:
			case <-c.Request.Context().Done():
			}
		})
	defer handle.Cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent(ev.name, ev.data)
			// A failed subscription never recovers; end the stream.
			return ev.name != "failed"
		case <-c.Request.Context().Done():
			return false
		}
	})
}
