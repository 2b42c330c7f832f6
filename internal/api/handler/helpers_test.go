package handler

import (
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/fretenet/trip-monitor/internal/api/middleware"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newJSONContext builds a request context, optionally carrying the claims the
// Auth middleware would inject.
func newJSONContext(e *echo.Echo, method, target string, body io.Reader, userID, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxRole, role)
	}
	return c, rec
}
