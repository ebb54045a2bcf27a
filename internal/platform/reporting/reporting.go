// Package reporting computes aggregate statistics over the identity and
// records stores for the dashboard endpoint. The aggregation is a linear
// pass per request, which is fine at demo scale.
package reporting

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opor/opor/internal/domain/identity"
	"github.com/opor/opor/internal/domain/records"
)

// Stats is the aggregate view returned by the statistics endpoint.
type Stats struct {
	TotalPatients     int `json:"total_patients"`
	TotalRecords      int `json:"total_records"`
	UniqueHealthCards int `json:"unique_health_cards"`
}

type Handler struct {
	identitySvc *identity.Service
	recordsSvc  *records.Service
}

func NewHandler(identitySvc *identity.Service, recordsSvc *records.Service) *Handler {
	return &Handler{identitySvc: identitySvc, recordsSvc: recordsSvc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/stats", h.GetStats)
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.Compute(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// Compute walks the identity collection, counting distinct health cards and
// summing clinical record counts over patients that have a bundle.
func (h *Handler) Compute(ctx context.Context) (*Stats, error) {
	patients, err := h.identitySvc.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalPatients: len(patients)}
	cards := make(map[string]struct{}, len(patients))
	for _, p := range patients {
		cards[p.HealthCardNumber] = struct{}{}

		record, err := h.recordsSvc.GetUnifiedRecord(ctx, p.PatientID)
		if err != nil {
			if errors.Is(err, records.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		stats.TotalRecords += len(record.ClinicalRecords)
	}
	stats.UniqueHealthCards = len(cards)
	return stats, nil
}
