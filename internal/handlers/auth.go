package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/sholdev/music_school/internal/middleware/auth"
	"github.com/sholdev/music_school/internal/models"
	"github.com/sholdev/music_school/internal/service"
)

const (
	HeaderAccessToken  = "x-access-token"
	HeaderRefreshToken = "x-refresh-token"
)

type AuthHandler struct {
	Service *service.AuthService
}

type userProjection struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// project strips credential fields; the password hash and refresh
// token never leave the service.
func project(u *models.User) userProjection {
	return userProjection{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(5, 255), is.Email),
		validation.Field(&r.Password, passwordRules...),
	)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	user, pair, err := h.Service.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "User already registered.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	c.Response().Header().Set(HeaderAccessToken, pair.AccessToken)
	c.Response().Header().Set(HeaderRefreshToken, pair.RefreshToken)
	return c.JSON(http.StatusCreated, project(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(5, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 1024)),
	)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		// malformed credentials get the same generic answer as wrong
		// ones, nothing here may reveal which field failed
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid email or password.")
	}

	user, pair, err := h.Service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid email or password.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	c.Response().Header().Set(HeaderAccessToken, pair.AccessToken)
	c.Response().Header().Set(HeaderRefreshToken, pair.RefreshToken)
	return c.JSON(http.StatusOK, project(user))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusForbidden, "Access denied, token missing!")
	}

	pair, err := h.Service.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			return echo.NewHTTPError(http.StatusUnauthorized, "Token expired!")
		case errors.Is(err, service.ErrTokenReuse), errors.Is(err, service.ErrTokenInvalid):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token!")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
		}
	}

	return c.JSON(http.StatusCreated, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
	}

	if err := h.Service.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User logged out!"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access denied. No token provided.")
	}

	user, err := h.Service.Me(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, project(user))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required.")
	}

	if err := h.Service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "No user with that email.")
		case errors.Is(err, service.ErrEmailDelivery):
			return echo.NewHTTPError(http.StatusInternalServerError, "Error sending email.")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email sent."})
}

type resetPasswordRequest struct {
	UserID      uint   `json:"userId"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (r resetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	err := h.Service.ResetPassword(c.Request().Context(), req.UserID, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Invalid user.")
		case errors.Is(err, service.ErrTokenExpired):
			return echo.NewHTTPError(http.StatusUnauthorized, "Reset password token expired.")
		case errors.Is(err, service.ErrResetToken):
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong reset password token.")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
		}
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "Password changed."})
}
