package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/middleware" // JWT, role, rate limit and cache middlewares
	"github.com/iliyamo/smart-parking/internal/utils"      // role names
)

// RegisterParking registers the parking API under /api.
//
// Reads are public and served through the response cache.  Entry and exit
// are public but rate limited.  Inventory and maintenance changes require
// an OPERATOR token once an operator password hash is configured, and are
// open like entry and exit otherwise.  Every mutation bumps the cache
// generation once it succeeds.
func RegisterParking(e *echo.Echo, d Deps) {
	p := d.Parking
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis)

	// middleware is attached per route so unknown /api paths still 404
	api := e.Group("/api")
	operator := []echo.MiddlewareFunc{limit, invalidate}
	if d.OperatorAuth() {
		operator = append([]echo.MiddlewareFunc{
			middleware.JWTAuth(d.JWTSecret),
			middleware.RequireRole(utils.RoleOperator),
		}, operator...)
	}

	// ---- Reads ----
	api.GET("/parking-space/get", p.GetParkingSpace, cache)
	api.GET("/slot/get", p.GetSlots, cache)
	api.GET("/sessions/get", p.GetActiveSessions, cache)
	api.GET("/sessions/gets", p.GetAllSessions, cache)
	api.GET("/sessions/get/:sessionId", p.GetSession, cache)
	api.GET("/vehicle/get/:vehicleId", p.GetVehicle, cache)

	// ---- Entry and exit ----
	api.POST("/vehicle/register", p.RegisterVehicle, limit, invalidate)
	api.POST("/vehicle/exit/:sessionId", p.ExitVehicle, limit, invalidate)

	// ---- Operator ----
	api.POST("/parking-space/initialize", p.InitializeParkingSpace, operator...)
	api.POST("/slot/maintenance/:slotId", p.EnterMaintenance, operator...)
	api.DELETE("/slot/maintenance/:slotId", p.ExitMaintenance, operator...)
}
