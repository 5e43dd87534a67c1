package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sholdev/music_school/internal/tokens"
)

// RequireLogin decodes the bearer access token and attaches the caller
// identity to the request context. Missing and expired tokens get 401
// with distinct messages; a structurally bad token gets 400.
func RequireLogin(accessSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
			}

			claims, err := tokens.ParseAccessToken(raw, accessSecret)
			if err != nil {
				if errors.Is(err, tokens.ErrExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Session timed out, please login again.")
				}
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid token.")
			}

			userID, err := tokens.SubjectID(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid token.")
			}

			setUserContext(c, userID, claims.Role, claims.Name)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
