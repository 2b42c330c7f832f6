package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/fretenet/trip-monitor/internal/api/handler"
	"github.com/fretenet/trip-monitor/internal/api/middleware"
	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/infrastructure/http/handlers"

	_ "github.com/fretenet/trip-monitor/docs"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth       ports.AuthService
	Trips      ports.TripService
	Locations  ports.LocationReporter
	Fixes      ports.FixStore
	Monitoring ports.MonitoringService
	Checks     []handlers.DependencyCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("trip_monitor"))

	// --- Public routes ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(svc.Checks...)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(jwtSecret))

	staff := middleware.RBAC(domain.RoleOperator, domain.RoleAdmin)
	everyone := middleware.RBAC(domain.RoleDriver, domain.RoleOperator, domain.RoleAdmin)

	trips := handler.NewTripHandler(svc.Trips)
	v1.POST("/trips", trips.Start, staff)
	v1.GET("/trips/:shipment_id", trips.Get, everyone)
	v1.POST("/trips/:shipment_id/advance", trips.Advance, everyone)

	locations := handler.NewLocationHandler(svc.Locations, svc.Fixes)
	v1.POST("/locations", locations.Report, middleware.RBAC(domain.RoleDriver))
	v1.POST("/drivers/:driver_id/fixes", locations.StoreFix, middleware.RBAC(domain.RoleDriver, domain.RoleAdmin))

	monitoring := handler.NewMonitoringHandler(svc.Monitoring)
	v1.POST("/monitoring", monitoring.Start, staff)
	v1.GET("/monitoring", monitoring.List, staff)
	v1.DELETE("/monitoring/:session_id", monitoring.Stop, staff)

	return e
}
