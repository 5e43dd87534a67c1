package auth

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sholdev/music_school/internal/roles"
)

// GrantAccess checks the caller's role against the capability table.
// Runs after RequireLogin. "Own"-scoped grants additionally require the
// :id route param to match the caller's id.
func GrantAccess(tbl roles.Table, action, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			scope, ok := tbl.Can(role, action, resource)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "You don't have enough permission to perform this action.")
			}

			if scope == roles.ScopeOwn {
				callerID, ok := UserID(c)
				if !ok {
					return echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
				}
				targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
				if err != nil || uint(targetID) != callerID {
					return echo.NewHTTPError(http.StatusForbidden, "You don't have enough permission to perform this action.")
				}
			}

			return next(c)
		}
	}
}
