package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	clcontext "github.com/Ramsey-B/clover/pkg/context"
)

// Logger logs one line per request. Run triggers are logged at info, the
// rest (health probes, metric scrapes, reads) at debug.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := clcontext.From(req.Context()).Fields()
			fields["status"] = c.Response().Status
			fields["response_time"] = time.Since(start)
			fields["response_size"] = c.Response().Size

			log := logger.WithContext(req.Context()).WithFields(fields)
			if req.Method == echo.POST {
				log.Info("Request")
			} else {
				log.Debug("Request")
			}
			return nil
		}
	}
}
