package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ContextKey is where Middleware stores the accepted bearer token.
const ContextKey = "bearer_token"

// Middleware requires a usable bearer token on every request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err := Check(token, time.Now()); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}
			c.Set(ContextKey, token)
			return next(c)
		}
	}
}

// FromContext returns the token stored by Middleware.
func FromContext(c echo.Context) string {
	tok, _ := c.Get(ContextKey).(string)
	return tok
}
