package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clcontext "github.com/Ramsey-B/clover/pkg/context"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
)

func newTestServer(handler echo.HandlerFunc) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.GET("/", handler)
	return e
}

func serve(e *echo.Echo, header string) (*httptest.ResponseRecorder, ErrorResponse) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderXRequestID, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestError(t *testing.T) {
	t.Run("http error keeps status", func(t *testing.T) {
		e := newTestServer(func(c echo.Context) error {
			return httperror.NewHTTPError(http.StatusNotFound, "run not found")
		})
		rec, body := serve(e, "req-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "run not found", body.Message)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("schema error maps to 422", func(t *testing.T) {
		e := newTestServer(func(c echo.Context) error {
			return clerrors.NewSchemaError("Organisationen", "Name")
		})
		rec, body := serve(e, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "Organisationen", body.Meta["table"])
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		e := newTestServer(func(c echo.Context) error {
			return errors.New("boom")
		})
		rec, body := serve(e, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", body.Message)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("expired deadline is a gateway timeout", func(t *testing.T) {
		e := newTestServer(func(c echo.Context) error {
			return fmt.Errorf("stage roles: %w", context.DeadlineExceeded)
		})
		rec, body := serve(e, "")
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, "run timed out", body.Message)
	})

	t.Run("echo error keeps its code", func(t *testing.T) {
		e := newTestServer(func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusMethodNotAllowed)
		})
		rec, body := serve(e, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "Method Not Allowed", body.Message)
	})
}

func TestContext(t *testing.T) {
	var values clcontext.Values
	e := newTestServer(func(c echo.Context) error {
		values = clcontext.From(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	rec, _ := serve(e, "req-2")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-2", values.RequestID)
	assert.Equal(t, clcontext.TriggerAPI, values.Trigger)
	assert.Equal(t, http.MethodGet, values.Method)
	assert.Equal(t, "req-2", rec.Header().Get(echo.HeaderXRequestID))
}
