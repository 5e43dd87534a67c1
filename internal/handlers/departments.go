package handlers

import (
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/sholdev/music_school/internal/models"
)

type DepartmentHandler struct {
	DB *gorm.DB
}

type departmentRequest struct {
	Name string `json:"name"`
}

func (r departmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 50)),
	)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id.")
	}
	return uint(id), nil
}

func (h *DepartmentHandler) Create(c echo.Context) error {
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	department := models.Department{Name: req.Name}
	if err := h.DB.WithContext(c.Request().Context()).Create(&department).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusCreated, department)
}

func (h *DepartmentHandler) List(c echo.Context) error {
	var departments []models.Department
	if err := h.DB.WithContext(c.Request().Context()).Order("id ASC").Find(&departments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, departments)
}

func (h *DepartmentHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var department models.Department
	if err := h.DB.WithContext(c.Request().Context()).First(&department, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Department was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, department)
}

func (h *DepartmentHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	var department models.Department
	if err := h.DB.WithContext(c.Request().Context()).First(&department, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Department was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	department.Name = req.Name
	if err := h.DB.WithContext(c.Request().Context()).Save(&department).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, department)
}

func (h *DepartmentHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	result := h.DB.WithContext(c.Request().Context()).Delete(&models.Department{}, id)
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Department was not found.")
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}
