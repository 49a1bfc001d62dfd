// Package app contains the web front-end.
package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/stolasapp/turnstile/internal/account"
	"github.com/stolasapp/turnstile/internal/app/component"
	"github.com/stolasapp/turnstile/internal/config"
	"github.com/stolasapp/turnstile/internal/sec"
	"github.com/stolasapp/turnstile/internal/storage"
)

// Cookie names.
const (
	SessionCookieName = "session-token"
	CSRFCookieName    = "_csrf"
)

// New creates a web front-end server.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	sessions storage.Sessions,
	accounts *account.Service,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	srv.Use(
		middleware.Recover(),
		middleware.Secure(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: uuid.NewString,
		}),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:" + component.FieldCSRF,
			CookieName:     CSRFCookieName,
			CookiePath:     "/",
			CookieSecure:   cfg.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
		}),
		resolveSession(logger, sessions),
	)

	handler{
		accounts:     accounts,
		secureCookie: cfg.CookieSecure,
	}.register(srv)
	return srv
}

// resolveSession attaches the owner of the session cookie to the request
// context. Missing and unknown tokens leave the request anonymous; handlers
// decide what anonymous callers may do. Store failures end the request.
func resolveSession(logger *slog.Logger, sessions storage.Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil {
				return next(c)
			}
			req := c.Request()
			ident, ok, err := sec.Resolve(req.Context(), logger, sessions, cookie.Value)
			if err != nil {
				logger.ErrorContext(req.Context(), "session lookup failed", slog.Any("error", err))
				return err
			}
			if ok {
				c.SetRequest(req.WithContext(sec.SetAuthenticatedUser(req.Context(), ident)))
			}
			return next(c)
		}
	}
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("id", res.Header().Get(echo.HeaderXRequestID)),
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if ident, ok := sec.GetAuthenticatedUser(req.Context()); ok {
				attrs = append(attrs, slog.Uint64("user_id", ident.UserID))
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
