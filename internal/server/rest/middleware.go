package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/dmitrijs2005/clipshare/internal/server/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ctxUserID is the echo context key holding the authenticated user ID.
const ctxUserID = "user_id"

// Authenticator resolves bearer tokens to user IDs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the token's user ID in the context under "user_id".
func BearerAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeaderName)
			if !strings.HasPrefix(header, common.BearerPrefix) {
				return jsonError(c, http.StatusUnauthorized, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
			if raw == "" {
				return jsonError(c, http.StatusUnauthorized, "missing bearer token")
			}

			userID, err := a.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if !errors.Is(err, common.ErrTokenExpired) && !errors.Is(err, common.ErrInvalidToken) {
					err = common.ErrInvalidToken
				}
				return writeError(c, err)
			}

			c.Set(ctxUserID, userID)
			return next(c)
		}
	}
}

func userIDFrom(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

// requestMetrics records count and latency per route template.
func requestMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

// requestLogger logs one line per request. Headers are not logged.
func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  false,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}

// requestID tags each request with X-Request-Id unless the client sent one.
func requestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			id, err := common.MakeRandHexString(8)
			if err != nil {
				return ""
			}
			return id
		},
	})
}
