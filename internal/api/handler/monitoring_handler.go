package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fretenet/trip-monitor/internal/core/ports"
)

type MonitoringHandler struct {
	sessions ports.MonitoringService
}

func NewMonitoringHandler(sessions ports.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{sessions: sessions}
}

// Start begins monitoring a shipment. Starting an already monitored shipment
// returns its existing session.
//
// @Summary      Start monitoring
// @Tags         monitoring
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startMonitoringRequest  true  "Session"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/monitoring [post]
func (h *MonitoringHandler) Start(c echo.Context) error {
	var req startMonitoringRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	info, err := h.sessions.Start(c.Request().Context(), req.ShipmentID, req.SubjectID, toSessionOptions(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(info))
}

// List returns every running session.
//
// @Summary      List monitoring sessions
// @Tags         monitoring
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listSessionsResponse
// @Router       /v1/monitoring [get]
func (h *MonitoringHandler) List(c echo.Context) error {
	sessions := h.sessions.Sessions()
	resp := listSessionsResponse{Data: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Data = append(resp.Data, toSessionResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// Stop ends a session. Unknown sessions are a no-op.
//
// @Summary      Stop monitoring
// @Tags         monitoring
// @Security     BearerAuth
// @Param        session_id  path  string  true  "Session ID"
// @Success      204
// @Router       /v1/monitoring/{session_id} [delete]
func (h *MonitoringHandler) Stop(c echo.Context) error {
	h.sessions.Stop(c.Param("session_id"))
	return c.NoContent(http.StatusNoContent)
}
