package auth

import (
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
	ctxName   = "name"
)

func setUserContext(c echo.Context, userID uint, role, name string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
	c.Set(ctxName, name)
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok
}

func Role(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}
