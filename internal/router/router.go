package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/motel-occupancy/internal/handler"
	"github.com/iliyamo/motel-occupancy/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Rooms   *handler.RoomHandler
	Guests  *handler.GuestHandler
	Reports *handler.ReportHandler
}

// Options carries the middleware shared by the protected groups.  Nil
// entries are skipped.
type Options struct {
	JWTSecret   string
	RateLimit   echo.MiddlewareFunc
	ReportCache echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterStaff mounts the front desk API under /v1 and the legacy /guest
// paths.  Both require a valid JWT with the STAFF or ADMIN role.
func RegisterStaff(e *echo.Echo, h Handlers, opt Options) {
	mw := protected(opt, middleware.RoleStaff, middleware.RoleAdmin)

	g := e.Group("/v1", mw...)
	g.GET("/rooms", h.Rooms.List)
	g.POST("/guests", h.Guests.Register)
	g.GET("/guests", h.Guests.List)
	g.PUT("/guests/check-in", h.Guests.CheckInByBody)
	g.PUT("/guests/check-out", h.Guests.CheckOutByBody)
	g.GET("/bookings/:id", h.Guests.Get)
	g.POST("/bookings/:id/check-in", h.Guests.CheckIn)
	g.POST("/bookings/:id/check-out", h.Guests.CheckOut)

	legacy := e.Group("/guest", mw...)
	legacy.POST("/add", h.Guests.Register)
	legacy.PUT("/check-in", h.Guests.CheckInByBody)
	legacy.PUT("/check-out", h.Guests.CheckOutByBody)
	legacy.GET("/list", h.Guests.List)
}

// RegisterReports mounts /v1/reports for ADMIN tokens.  Report responses
// pass through the response cache when one is configured.
func RegisterReports(e *echo.Echo, h *handler.ReportHandler, opt Options) {
	mw := protected(opt, middleware.RoleAdmin)
	if opt.ReportCache != nil {
		mw = append(mw, opt.ReportCache)
	}
	g := e.Group("/v1/reports", mw...)
	g.GET("/sales", h.Sales)
	g.GET("/sales.xlsx", h.SalesWorkbook)
	g.GET("/occupancy", h.Occupancy)
}

// protected orders the chain: authenticate, authorize, then rate limit so
// the bucket key can include the staff id.
func protected(opt Options, roles ...string) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(roles...),
	}
	if opt.RateLimit != nil {
		mw = append(mw, opt.RateLimit)
	}
	return mw
}
