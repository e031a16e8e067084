package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/medplanner/medplanner/services/clinic-api/internal/audit"
	"github.com/medplanner/medplanner/services/clinic-api/internal/respond"
)

type auditLog interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type AuditHandler struct {
	log    auditLog
	logger *slog.Logger
}

func NewAuditHandler(log auditLog, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{log: log, logger: logger}
}

// Recent lists the newest audit events. Doctor-only, enforced by routing.
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	events, err := h.log.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list audit events", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to list audit events")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"events": events})
}
