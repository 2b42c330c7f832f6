package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

type LocationHandler struct {
	reporter ports.LocationReporter
	fixes    ports.FixStore
}

func NewLocationHandler(reporter ports.LocationReporter, fixes ports.FixStore) *LocationHandler {
	return &LocationHandler{reporter: reporter, fixes: fixes}
}

func rejectStatus(reason ports.RejectReason) int {
	switch reason {
	case ports.RejectThrottled, ports.RejectInFlight:
		return http.StatusTooManyRequests
	case ports.RejectInvalid:
		return http.StatusUnprocessableEntity
	case ports.RejectWriteFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Report records the caller's current position. The subject is always the
// authenticated driver.
//
// @Summary      Report driver location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      locationReportRequest  true  "Location sample"
// @Success      202   {object}  locationReportResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  locationReportResponse
// @Failure      429   {object}  locationReportResponse
// @Failure      503   {object}  locationReportResponse
// @Router       /v1/locations [post]
func (h *LocationHandler) Report(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req locationReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, locationReportResponse{Reason: string(ports.RejectInvalid)})
	}

	res := h.reporter.Report(c.Request().Context(), id.UserID, toSample(req), req.ShipmentID)
	if !res.Accepted {
		return c.JSON(rejectStatus(res.Reason), locationReportResponse{Reason: string(res.Reason)})
	}
	return c.JSON(http.StatusAccepted, locationReportResponse{Accepted: true, Warnings: len(res.Recovered)})
}

// StoreFix receives a raw GPS fix pushed by the driver app. Drivers may only
// push their own fixes.
//
// @Summary      Push a raw GPS fix
// @Tags         locations
// @Accept       json
// @Security     BearerAuth
// @Param        driver_id  path  string                 true  "Driver ID"
// @Param        body       body  locationReportRequest  true  "Fix"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/drivers/{driver_id}/fixes [post]
func (h *LocationHandler) StoreFix(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	driverID := c.Param("driver_id")
	if id.isDriver() && id.UserID != driverID {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var req locationReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.fixes.StoreFix(c.Request().Context(), driverID, toSample(req)); err != nil {
		return &domain.PersistenceError{Op: "gps fix", Err: err}
	}
	return c.NoContent(http.StatusNoContent)
}
