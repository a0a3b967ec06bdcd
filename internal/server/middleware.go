package server

import (
	"time"

	"proxybid/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-ID"

var tracer = otel.Tracer("proxybid/internal/server")

// RequestLoggerMiddleware logs incoming requests with timing and opens the request span
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = utils.GenerateID()
	}
	c.Header(requestIDHeader, requestID)

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.String("request.id", requestID),
		))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	c.Next() // process request

	status := c.Writer.Status()
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= 500 {
		span.SetStatus(codes.Error, "server error")
	}

	if route == "/healthz" {
		return
	}
	utils.Info("HTTP Request", map[string]any{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     status,
		"latency":    time.Since(start).String(),
		"request_id": requestID,
	})
}
