package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sholdev/music_school/internal/repo"
)

type UsersHandler struct {
	Repo *repo.UserRepo
}

type userListItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *UsersHandler) List(c echo.Context) error {
	users, err := h.Repo.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	items := make([]userListItem, len(users))
	for i, u := range users {
		items[i] = userListItem{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return c.JSON(http.StatusOK, items)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
