package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/land-rent-service/internal/model"
	"github.com/iliyamo/land-rent-service/internal/utils"
)

// userKey is the context key the resolved user record is stored
// under.
const userKey = "user"

// UserLoader is the slice of the user repository the resolver
// needs: a fresh read of the user record by token subject. No
// caching happens here; acceptable staleness is the store's
// transaction, not this middleware's concern.
type UserLoader interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and resolves the caller's current user record. A request is
// admitted only when the token is signature-valid and unexpired,
// its subject resolves to an existing user, and the account is not
// disabled. Which of malformed/bad-signature/expired actually
// happened is logged but never echoed to the client; externally all
// of them are the same 401.
func JWTAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				c.Logger().Debugf("token rejected: %v", err)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			u, err := users.GetByEmail(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
			if u.Disabled {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
			}

			c.Set(userKey, u)
			return next(c)
		}
	}
}

// CurrentUser returns the user record resolved by JWTAuth. The
// second return value is false when the middleware did not run.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}
