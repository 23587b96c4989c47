package mindflow

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	// HTML forms only speak GET/POST, so PUT/DELETE are tunnelled through a
	// _method form field or query parameter.
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: methodFromFormOrQuery("_method"),
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			a.Logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"status":  v.Status,
				"latency": v.Latency,
			}).Info(v.URI)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(cacheControlMiddleware)
}

// methodFromFormOrQuery checks the form body first (the hidden-input
// convention), then falls back to the query string, which multipart edit
// forms use because their body is consumed by the file parser.
func methodFromFormOrQuery(param string) func(echo.Context) string {
	formGetter := middleware.MethodFromForm(param)
	queryGetter := middleware.MethodFromQuery(param)
	return func(c echo.Context) string {
		if m := queryGetter(c); m != "" {
			return m
		}
		return formGetter(c)
	}
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case strings.HasPrefix(path, "/uploads/"), strings.HasPrefix(path, "/images/"), strings.HasPrefix(path, "/public/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case strings.HasPrefix(path, "/admin"), strings.HasPrefix(path, "/auth"):
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		}
		return next(c)
	}
}

// httpErrorHandler makes failure responses exhaustive: every error that
// escapes a handler still resolves to a rendered page.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.WithField("uri", c.Request().RequestURI).Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
