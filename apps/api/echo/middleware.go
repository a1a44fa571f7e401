package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware lets through the users holding any of roles. Admins always pass.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyRole(ctx, append([]string{RoleAdmin}, roles...)) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// writerMiddleware guards the endpoints that write reports or recompute derived data.
func writerMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(RoleSecretary)
}
