package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelStatusMiddleware records the final HTTP status on the active span.
// otelecho opens the span before routing; echo resolves the status only
// after the handler chain ran, so the attribute is set here. 5xx marks
// the span as errored, 4xx stays unset per semantic conventions.
func OTelStatusMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			span := trace.SpanFromContext(c.Request().Context())
			if !span.SpanContext().IsValid() {
				return err
			}

			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}

			span.SetAttributes(attribute.Int("http.response.status_code", status))

			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
				if err != nil {
					span.RecordError(err)
				}
			}

			return err
		}
	}
}
