package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

const maxJSONBodySize = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, message string, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := model.APIResponse{
		Success: false,
		Code:    apierror.CodeInternal,
		Error:   "Unexpected server error",
	}

	var apiErr *apierror.APIError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Reason = apiErr.Reason
		body.Error = apiErr.Message
		body.Details = apiErr.Details
	case errors.As(err, &tooLarge):
		status = http.StatusBadRequest
		body.Code = apierror.CodeValidation
		body.Reason = apierror.ReasonFileTooLarge
		body.Error = "Request body too large"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Reason = apierror.ReasonUserNotFound
		body.Error = "User not found"
	case errors.Is(err, model.ErrOperatorNotFound):
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Reason = apierror.ReasonOperatorNotFound
		body.Error = "Dive operator not found"
	case errors.Is(err, model.ErrEmailTaken):
		status = http.StatusConflict
		body.Code = apierror.CodeConflict
		body.Reason = apierror.ReasonEmailTaken
		body.Error = "Email already registered"
	default:
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads an optional JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apierror.Validation(apierror.ReasonInvalidBody, "Invalid JSON body")
	}

	return nil
}
