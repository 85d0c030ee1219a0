package handler

import (
	"net/http"

	"go-dive-auth/internal/middleware"
	"go-dive-auth/internal/model"
	"go-dive-auth/internal/service"
	"go-dive-auth/pkg/apierror"
)

type ProfileHandler struct {
	credentials *service.CredentialService
}

func NewProfileHandler(credentials *service.CredentialService) *ProfileHandler {
	return &ProfileHandler{credentials: credentials}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	writeSuccess(w, http.StatusOK, "", model.ProfileEnvelope{Profile: user.View()}, nil)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, authenticationRequired())
		return
	}

	var payload model.UpdateProfileRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.credentials.UpdateProfile(r.Context(), identity.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Profile updated", model.UserEnvelope{User: user.View()}, nil)
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, authenticationRequired())
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.credentials.ChangePassword(r.Context(), identity.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password changed successfully", nil, nil)
}

func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	writeSuccess(w, http.StatusOK, welcome(user), model.DashboardPayload{UserID: user.ID, Role: user.Role}, nil)
}

// OperatorDashboard is only routed behind the approved-operator gate.
func (h *ProfileHandler) OperatorDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	payload := model.OperatorDashboardPayload{Documents: []model.Document{}}
	if user.Operator != nil {
		payload.VerifiedAt = user.Operator.Verification.VerifiedAt
		if user.Operator.Documents != nil {
			payload.Documents = user.Operator.Documents
		}
	}

	writeSuccess(w, http.StatusOK, welcome(user), payload, nil)
}

func (h *ProfileHandler) currentUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, authenticationRequired())
		return model.User{}, false
	}

	user, err := h.credentials.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return model.User{}, false
	}

	return user, true
}

func welcome(user model.User) string {
	return "Welcome, " + user.FullName() + "!"
}

func authenticationRequired() error {
	return apierror.Unauthorized(apierror.ReasonMissingOrMalformed, "Authentication required")
}
