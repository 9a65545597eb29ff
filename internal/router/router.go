package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/handler"
	"github.com/cyrilbhau/visitor-kiosk/internal/middleware"
)

// RegisterRoutes registers routes that need neither middleware nor stores.
// Currently it exposes only a health check, used by load balancers and
// monitoring systems to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated kiosk endpoints.  The rate
// limiter wraps everything a kiosk client can hit; the response cache wraps
// only the reason listing, whose payload is the same for every visitor.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, v *handler.VisitHandler, cache, ratelimit echo.MiddlewareFunc) {
	g := e.Group("/v1", ratelimit)
	// Active reasons with the computed featured flag, served through the cache.
	g.GET("/visit-reasons", p.GetVisitReasons, cache)
	// Autocomplete over past visitors; sub-3-character queries short-circuit.
	g.GET("/visitors/search", p.SearchVisitors)
	// Check-in submission.
	g.POST("/visits", v.CreateVisit)
}

// RegisterAdmin registers the admin surface.  Login is the only route
// outside the session gate; everything else requires the signed cookie
// issued there.
func RegisterAdmin(e *echo.Echo, a *handler.AdminAuthHandler, r *handler.AdminReasonHandler, v *handler.AdminVisitHandler, sessionSecret string) {
	e.POST("/v1/admin/login", a.Login)

	g := e.Group("/v1/admin")
	g.Use(middleware.AdminSession(sessionSecret))
	g.GET("/visit-reasons", r.List)
	g.POST("/visit-reasons", r.Create)
	g.PATCH("/visit-reasons/:id", r.Update)
	g.GET("/visits", v.List)
}
