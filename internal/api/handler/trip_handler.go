package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

// TripHandler exposes trip progress. Domain errors are returned unchanged and
// mapped to status codes by the API error handler.
type TripHandler struct {
	trips ports.TripService
}

func NewTripHandler(trips ports.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// Start opens a trip for an accepted shipment.
//
// @Summary      Start a trip
// @Tags         trips
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startTripRequest  true  "Trip assignment"
// @Success      201   {object}  tripResponse
// @Success      200   {object}  tripResponse  "trip already open"
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/trips [post]
func (h *TripHandler) Start(c echo.Context) error {
	var req startTripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.trips.StartTrip(c.Request().Context(), ports.StartTripInput{
		ShipmentID: req.ShipmentID,
		DriverID:   req.DriverID,
		ShipperID:  req.ShipperID,
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	resp, err := toTripResponse(res.Trip)
	if err != nil {
		return err
	}
	return c.JSON(status, resp)
}

// Get returns the trip of a shipment with every stage and its label.
//
// @Summary      Get trip progress
// @Tags         trips
// @Produce      json
// @Security     BearerAuth
// @Param        shipment_id  path      string  true  "Shipment ID"
// @Success      200          {object}  tripResponse
// @Failure      403          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Router       /v1/trips/{shipment_id} [get]
func (h *TripHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	trip, err := h.trips.GetTrip(c.Request().Context(), c.Param("shipment_id"))
	if err != nil {
		return err
	}
	if !id.ownsTrip(trip) {
		return domain.ErrForbidden
	}
	resp, err := toTripResponse(trip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Advance moves the trip one stage forward.
//
// @Summary      Advance trip status
// @Tags         trips
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        shipment_id  path      string              true  "Shipment ID"
// @Param        body         body      advanceTripRequest  true  "Requested stage"
// @Success      200          {object}  advanceTripResponse
// @Failure      400          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Failure      409          {object}  errorResponse
// @Failure      422          {object}  errorResponse
// @Failure      503          {object}  errorResponse
// @Router       /v1/trips/{shipment_id}/advance [post]
func (h *TripHandler) Advance(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req advanceTripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	shipmentID := c.Param("shipment_id")

	if id.isDriver() {
		trip, err := h.trips.GetTrip(ctx, shipmentID)
		if err != nil {
			return err
		}
		if !id.ownsTrip(trip) {
			return domain.ErrForbidden
		}
	}

	evidence := domain.Evidence{Notes: req.Notes}
	if req.Location != nil {
		evidence.Location = &domain.Coordinates{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	res, err := h.trips.Advance(ctx, shipmentID, domain.TripStatus(req.Status), evidence)
	if err != nil {
		return err
	}
	resp, err := toTripResponse(res.Trip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, advanceTripResponse{Trip: resp, Idempotent: res.Idempotent})
}
