package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                  // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // import Echo's bundled middleware for panic recovery
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/smart-parking/internal/config"     // rate limit and cache settings
	"github.com/iliyamo/smart-parking/internal/handler"    // import the handlers that implement the parking API
	"github.com/iliyamo/smart-parking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// Deps carries everything the router wires into routes.  Redis, Metrics
// and Gatherer are optional; without Redis the limiter and the cache are
// pass-through.
type Deps struct {
	Parking   *handler.ParkingHandler
	Auth      *handler.AuthHandler
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
}

// OperatorAuth reports whether operator routes are gated by a JWT.  The
// gate is on only when an operator password hash is configured, since no
// token can be issued without one.
func (d Deps) OperatorAuth() bool {
	return d.Auth != nil && d.Auth.PasswordHash != ""
}

// New builds an Echo instance with the shared middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}

	RegisterRoutes(e, d.Gatherer)
	if d.Auth != nil {
		RegisterAuth(e, d.Auth)
	}
	RegisterParking(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// do not touch the parking state: liveness and Prometheus exposition.
func RegisterRoutes(e *echo.Echo, g prometheus.Gatherer) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	if g != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the operator login endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/api/auth/login", a.Login)
}
