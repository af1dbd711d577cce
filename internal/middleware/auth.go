package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/infra/authn"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/serializer"
	"github.com/hourstack-io/hourstack/internal/modules/service"
	"github.com/hourstack-io/hourstack/internal/scope"
)

// Context keys set by UserAuth.
const (
	CtxIdentity = "identity"
	CtxProfile  = "profile"
)

// UserAuth authenticates requests with a bearer access token, resolves the
// identity through the auth provider, and loads (or creates) the stored
// profile carrying role and hourly rate.
func UserAuth(authClient authn.Client, users service.UserService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		ident, err := authClient.UserFromToken(c.Request.Context(), token)
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		profile, err := users.GetOrCreate(c.Request.Context(), *ident)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		c.Set(CtxIdentity, ident)
		c.Set(CtxProfile, profile)
		c.Next()
	}
}

// AdminOnly gates a route group on the admin role. It must run after
// UserAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := c.MustGet(CtxProfile).(*model.UserProfile)
		if !ok || !profile.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, serializer.ForbiddenErr(""))
			return
		}
		c.Next()
	}
}

// Identity returns the authenticated identity set by UserAuth.
func Identity(c *gin.Context) *scope.Identity {
	ident, _ := c.MustGet(CtxIdentity).(*scope.Identity)
	return ident
}

// Profile returns the stored profile set by UserAuth.
func Profile(c *gin.Context) *model.UserProfile {
	profile, _ := c.MustGet(CtxProfile).(*model.UserProfile)
	return profile
}
