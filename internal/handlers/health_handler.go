package handlers

import (
	"context"
	"net/http"

	"companion-backend/internal/dto"
	"companion-backend/internal/models"
	"companion-backend/internal/services"
	"companion-backend/utils/response"
)

type HealthService interface {
	ResourceService[models.HealthMetric, dto.CreateHealthMetricRequest, dto.UpdateHealthMetricRequest, dto.HealthListQuery]
	Summary(ctx context.Context, scope services.Scope, owner dto.ListOwner) ([]models.HealthMetric, error)
}

// HealthHandler is the health metric CRUD plus the latest-per-type summary.
type HealthHandler struct {
	*ResourceHandler[models.HealthMetric, dto.CreateHealthMetricRequest, dto.UpdateHealthMetricRequest, dto.HealthListQuery]
	service HealthService
}

func NewHealthHandler(service HealthService, errs *ErrorWriter) *HealthHandler {
	return &HealthHandler{
		ResourceHandler: &ResourceHandler[models.HealthMetric, dto.CreateHealthMetricRequest, dto.UpdateHealthMetricRequest, dto.HealthListQuery]{
			service: service,
			parse:   dto.ParseHealthListQuery,
			name:    "Health metric",
			errs:    errs,
		},
		service: service,
	}
}

func (h *HealthHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner, err := dto.ParseSummaryQuery(r.URL.Query())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	metrics, err := h.service.Summary(r.Context(), scopeFrom(r), owner)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if metrics == nil {
		metrics = []models.HealthMetric{}
	}

	response.Success(w, metrics, "")
}
