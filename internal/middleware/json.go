package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

func writeJSONError(w http.ResponseWriter, status int, code string, reason string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Reason:  reason,
	})
}

// writeAPIError renders err in the error envelope; anything that is not an
// APIError becomes a 500 with a generic message.
func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		writeJSONError(w, apiErr.HTTPStatus, apiErr.Code, apiErr.Reason, apiErr.Message)
		return
	}

	slog.Error("middleware failure", "error", err)
	writeJSONError(w, http.StatusInternalServerError, apierror.CodeInternal, "", "Unexpected server error")
}
