package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the echo instance with the middleware shared by every
// route. Handlers are mounted separately by the Register* functions.
func NewRouter(allowOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	registerLogging(e)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	// Profile image uploads are the largest request bodies this API
	// accepts; anything bigger is rejected before the handler runs.
	e.Use(middleware.BodyLimit("8M"))

	// Sessions are bearer tokens, not cookies, so credentialed CORS is
	// only offered to an explicit origin list.
	allowCredentials := len(allowOrigins) > 0
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowCredentials = false
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
		},
		AllowCredentials: allowCredentials,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "userhub-api"})
	})
	return e
}
