package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	clcontext "github.com/Ramsey-B/clover/pkg/context"
)

// Context tags every request with a request id (taken from X-Request-Id or
// generated) and echoes it back, so a triggered run can be correlated.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := clcontext.With(req.Context(), clcontext.Values{
				RequestID: requestID,
				Trigger:   clcontext.TriggerAPI,
				Method:    req.Method,
				Route:     c.Path(),
				RemoteIP:  c.RealIP(),
			})
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
