package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/sholdev/music_school/internal/models"
	"github.com/sholdev/music_school/internal/service/search"
	"github.com/sholdev/music_school/internal/util"
)

type NoteHandler struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

type noteRequest struct {
	Name         string `json:"name"`
	File         string `json:"file"`
	Author       string `json:"author"`
	Type         string `json:"type"`
	PublisherID  *uint  `json:"publisher_id"`
	InstrumentID *uint  `json:"instrument_id"`
	Grade        *int   `json:"grade"`
}

func (r noteRequest) Validate() error {
	noteTypes := make([]interface{}, len(models.NoteTypes))
	for i, t := range models.NoteTypes {
		noteTypes[i] = t
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(4, 50)),
		validation.Field(&r.File, validation.Required),
		validation.Field(&r.Author, validation.Required, validation.Length(4, 50)),
		validation.Field(&r.Type, validation.Required, validation.In(noteTypes...)),
		validation.Field(&r.Grade, validation.Min(0), validation.Max(8)),
	)
}

// index mirrors the note into Elasticsearch, best effort.
func (h *NoteHandler) index(c echo.Context, note *models.Note) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexNote(ctx, h.ES, h.Index, note); err != nil {
		c.Logger().Errorf("note indexing error: %v", err)
	}
}

func (h *NoteHandler) Create(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	note := models.Note{
		Name:         req.Name,
		File:         req.File,
		Author:       req.Author,
		Type:         req.Type,
		PublisherID:  req.PublisherID,
		InstrumentID: req.InstrumentID,
		Grade:        req.Grade,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	h.index(c, &note)
	return c.JSON(http.StatusCreated, note)
}

func (h *NoteHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.WithContext(c.Request().Context()).Model(&models.Note{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	var notes []models.Note
	if err := h.DB.WithContext(c.Request().Context()).Order("id ASC").Offset(offset).Limit(limit).Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": notes})
}

func (h *NoteHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var note models.Note
	if err := h.DB.WithContext(c.Request().Context()).First(&note, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Library item was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if err := req.Validate(); err != nil {
		return validationResponse(c, err)
	}

	var note models.Note
	if err := h.DB.WithContext(c.Request().Context()).First(&note, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Library item was not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	note.Name = req.Name
	note.File = req.File
	note.Author = req.Author
	note.Type = req.Type
	note.PublisherID = req.PublisherID
	note.InstrumentID = req.InstrumentID
	note.Grade = req.Grade
	if err := h.DB.WithContext(c.Request().Context()).Save(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}

	h.index(c, &note)
	return c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	result := h.DB.WithContext(c.Request().Context()).Delete(&models.Note{}, id)
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Library item was not found.")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteNote(ctx, h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("note index delete error: %v", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}

func (h *NoteHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query is required.")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Search is not available.")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, notes, err := search.Notes(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Something failed.")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": notes})
}
