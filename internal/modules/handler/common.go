package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/modules/service"
)

// respondErr maps service errors to HTTP responses. Anything unrecognized is
// reported as a store failure.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalid):
		c.JSON(http.StatusBadRequest, serializer.ParamErr(err.Error(), err))
	case errors.Is(err, service.ErrWriteTimeout):
		c.JSON(http.StatusGatewayTimeout, serializer.TimeoutErr(err))
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotAssigned):
		c.JSON(http.StatusForbidden, serializer.ForbiddenErr(err.Error()))
	case errors.Is(err, docstore.ErrNotFound):
		c.JSON(http.StatusNotFound, serializer.Err(http.StatusNotFound, "not found", err))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
	}
}
