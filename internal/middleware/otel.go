package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hourstack-io/hourstack/internal/telemetry"
)

// OtelTracing instruments API requests with OpenTelemetry spans.
func OtelTracing(serviceName string) gin.HandlerFunc {
	return telemetry.GinMiddleware(serviceName)
}

// TraceID exposes the current trace ID on responses.
func TraceID() gin.HandlerFunc {
	return telemetry.TraceIDMiddleware()
}
