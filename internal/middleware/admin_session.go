package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/utils"
)

// AdminSession returns an Echo middleware that gates the admin surface
// behind the signed session cookie issued at login.  Every failure mode
// (missing cookie, bad signature, expired token) produces the same 401 so
// callers cannot tell which check rejected them.
func AdminSession(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(utils.SessionCookieName)
			if err != nil || !utils.VerifySessionToken(secret, cookie.Value) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
