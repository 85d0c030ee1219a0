package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-dive-auth/internal/model"
	"go-dive-auth/internal/service"
	"go-dive-auth/pkg/apierror"
)

type AdminHandler struct {
	verification *service.VerificationService
}

func NewAdminHandler(verification *service.VerificationService) *AdminHandler {
	return &AdminHandler{verification: verification}
}

func (h *AdminHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.verification.ListOperators(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]model.UserView, 0, len(operators))
	for _, op := range operators {
		views = append(views, op.View())
	}

	writeSuccess(w, http.StatusOK, "", model.OperatorList{Total: len(views), DiveOperators: views}, &model.Meta{Total: len(views)})
}

func (h *AdminHandler) GetOperator(w http.ResponseWriter, r *http.Request) {
	id, ok := operatorID(w, r)
	if !ok {
		return
	}

	op, err := h.verification.GetOperator(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", model.OperatorEnvelope{DiveOperator: op.View()}, nil)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := operatorID(w, r)
	if !ok {
		return
	}

	op, err := h.verification.Approve(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, fmt.Sprintf("Dive operator '%s' has been approved.", op.FullName()),
		model.OperatorEnvelope{DiveOperator: op.View()}, nil)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := operatorID(w, r)
	if !ok {
		return
	}

	var payload model.RejectRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	op, err := h.verification.Reject(r.Context(), id, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, fmt.Sprintf("Dive operator '%s' has been rejected.", op.FullName()),
		model.OperatorEnvelope{DiveOperator: op.View()}, nil)
}

func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := operatorID(w, r)
	if !ok {
		return
	}

	op, err := h.verification.Reset(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, fmt.Sprintf("Dive operator '%s' reset to pending.", op.FullName()),
		model.OperatorEnvelope{DiveOperator: op.View()}, nil)
}

// operatorID rejects ids that cannot name any account as not found.
func operatorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	parsed, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, apierror.NotFound(apierror.ReasonOperatorNotFound, "Dive operator not found"))
		return "", false
	}

	return parsed.String(), true
}
