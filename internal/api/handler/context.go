package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fretenet/trip-monitor/internal/api/middleware"
	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// identity is the authenticated caller.
type identity struct {
	UserID string
	Role   string
}

func (id identity) isDriver() bool { return id.Role == domain.RoleDriver }

// ctxIdentity reads the claims injected by the Auth middleware. Presence of
// both user ID and role proves the middleware ran.
func ctxIdentity(c echo.Context) (identity, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	if userID == "" || role == "" {
		return identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity{UserID: userID, Role: role}, nil
}

// ownsTrip reports whether the caller may act on the trip. Drivers only see
// their own trips; operators and admins see all.
func (id identity) ownsTrip(t *domain.TripProgress) bool {
	return !id.isDriver() || t.DriverID == id.UserID
}
