package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/practice/console/internal/platform/apiclient"
)

const RequestIDHeader = apiclient.HeaderRequestID

// RequestID tags each request with an id, reusing the caller's when present.
// The id is echoed in the response and forwarded on outbound API calls made
// with the request context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)

			req := c.Request()
			c.SetRequest(req.WithContext(apiclient.ContextWithRequestID(req.Context(), rid)))
			return next(c)
		}
	}
}
