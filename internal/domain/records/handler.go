package records

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records/:patientId", h.GetUnifiedRecord)
	api.POST("/records/:patientId", h.AddRecords)
	api.POST("/records/:patientId/clinical", h.AddClinicalRecord)
	api.GET("/records/:patientId/timeline", h.GetTimeline)
}

func (h *Handler) GetUnifiedRecord(c echo.Context) error {
	record, err := h.svc.GetUnifiedRecord(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Record not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  record,
	})
}

func (h *Handler) AddRecords(c echo.Context) error {
	var in AddRecordsInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.svc.AddRecords(c.Request().Context(), c.Param("patientId"), in); err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
	})
}

func (h *Handler) AddClinicalRecord(c echo.Context) error {
	var record Entry
	if err := c.Bind(&record); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.svc.AddClinicalRecord(c.Request().Context(), c.Param("patientId"), record); err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
	})
}

func (h *Handler) GetTimeline(c echo.Context) error {
	timeline, err := h.svc.Timeline(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"count":    len(timeline),
		"timeline": timeline,
	})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
