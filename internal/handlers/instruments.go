package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/sholdev/music_school/internal/models"
)

type InstrumentHandler struct {
	DB *gorm.DB
}

type instrumentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r instrumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 50)),
	)
}

func (h *InstrumentHandler) Create(c echo.Context) error {
	var req instrumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	instrument := models.Instrument{Name: req.Name, Description: req.Description}
	if err := h.DB.WithContext(c.Request().Context()).Create(&instrument).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusCreated, instrument)
}

func (h *InstrumentHandler) List(c echo.Context) error {
	var instruments []models.Instrument
	if err := h.DB.WithContext(c.Request().Context()).Order("id ASC").Find(&instruments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, instruments)
}

func (h *InstrumentHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var instrument models.Instrument
	if err := h.DB.WithContext(c.Request().Context()).First(&instrument, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Instrument was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, instrument)
}

func (h *InstrumentHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req instrumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	var instrument models.Instrument
	if err := h.DB.WithContext(c.Request().Context()).First(&instrument, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Instrument was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	instrument.Name = req.Name
	instrument.Description = req.Description
	if err := h.DB.WithContext(c.Request().Context()).Save(&instrument).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, instrument)
}

func (h *InstrumentHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	result := h.DB.WithContext(c.Request().Context()).Delete(&models.Instrument{}, id)
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Instrument was not found.")
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}
