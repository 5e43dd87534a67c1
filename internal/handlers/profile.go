package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sholdev/music_school/internal/repo"
)

// MaxAvatarSize caps avatar uploads at 2 MiB.
const MaxAvatarSize = 2 * 1024 * 1024

type ProfileHandler struct {
	Repo      *repo.UserRepo
	UploadDir string
}

func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.Repo.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, project(user))
}

type profileUpdateRequest struct {
	Name string `json:"name"`
}

func (r profileUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 50)),
	)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	user, err := h.Repo.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	user.Name = req.Name
	if err := h.Repo.Save(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, project(user))
}

// UploadAvatar stores the multipart "avatar" file under the upload dir
// and keeps only the generated filename on the user record.
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.Repo.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Avatar file is required.")
	}
	if file.Size > MaxAvatarSize {
		return echo.NewHTTPError(http.StatusBadRequest, "Avatar file is too large.")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	filename := fmt.Sprintf("avatar-%s%s", uuid.NewString(), filepath.Ext(file.Filename))
	dst, err := os.Create(filepath.Join(h.UploadDir, filename))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	user.Avatar = filename
	if err := h.Repo.Save(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, project(user))
}
