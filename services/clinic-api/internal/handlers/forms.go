package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/medplanner/medplanner/services/clinic-api/internal/forms"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/respond"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
)

type FormHandler struct {
	forms  storage.FormStore
	logger *slog.Logger
}

func NewFormHandler(store storage.FormStore, logger *slog.Logger) *FormHandler {
	return &FormHandler{forms: store, logger: logger}
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.forms.ListForms(r.Context())
	if err != nil {
		h.logger.Error("list forms", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to list forms")
		return
	}
	if all == nil {
		all = []model.QuestionnaireForm{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"forms": all})
}

// Questionnaire returns the intake form for one specialization.
func (h *FormHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetBySpecialization(r.Context(), r.PathValue("specialization"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Questionnaire not found")
			return
		}
		h.logger.Error("load questionnaire", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load questionnaire")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"form": form})
}

type submitAnswersRequest struct {
	Answers map[string]string `json:"answers"` // questionId -> selected label or raw value
}

type scoredAnswer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

// Score resolves a submission against the specialization's form and sums
// the numeric answers.
func (h *FormHandler) Score(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetBySpecialization(r.Context(), r.PathValue("specialization"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Questionnaire not found")
			return
		}
		h.logger.Error("load questionnaire", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load questionnaire")
		return
	}

	var req submitAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var (
		scored []scoredAnswer
		total  float64
	)
	for _, q := range form.Questions {
		raw, ok := req.Answers[q.QuestionID]
		if !ok {
			continue
		}
		v := forms.AnswerValue(q, raw)
		scored = append(scored, scoredAnswer{QuestionID: q.QuestionID, Value: v})
		if f, ok := v.(float64); ok {
			total += f
		}
	}
	if scored == nil {
		scored = []scoredAnswer{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"form_name": form.FormName,
		"answers":   scored,
		"score":     total,
	})
}
