package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cyrilbhau/visitor-kiosk/internal/config"
	"github.com/cyrilbhau/visitor-kiosk/internal/utils"
)

// AdminAuthHandler issues admin sessions.  There is a single shared admin
// password, held server-side as a bcrypt hash; a successful login sets the
// signed session cookie that the AdminSession middleware verifies.
type AdminAuthHandler struct {
	Cfg config.Config
}

// NewAdminAuthHandler constructs an AdminAuthHandler.
func NewAdminAuthHandler(cfg config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{Cfg: cfg}
}

type loginReq struct {
	Password string `json:"password"`
}

// Login handles POST /v1/admin/login.  A wrong password gets the same 401
// as any other failure and sets no cookie.
func (h *AdminAuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := utils.NewSessionToken(h.Cfg.SessionSecret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue session"})
	}

	c.SetCookie(&http.Cookie{
		Name:     utils.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.Env == "prod",
	})
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
