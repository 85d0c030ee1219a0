package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodeForbidden  = "FORBIDDEN"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

// Reasons carried on the wire next to the code.
const (
	ReasonInvalidField    = "invalid_field"
	ReasonInvalidBody     = "invalid_body"
	ReasonMissing         = "missing"
	ReasonMissingDocument = "missing_document"
	ReasonInvalidFileType = "invalid_file_type"
	ReasonFileTooLarge    = "file_too_large"
	ReasonReasonRequired  = "reason_required"
	ReasonInvalidStatus   = "invalid_status"

	ReasonInvalidCredentials = "invalid_credentials"
	ReasonAccountDeactivated = "account_deactivated"
	ReasonWrongPassword      = "wrong_password"
	ReasonMissingOrMalformed = "missing_or_malformed"
	ReasonExpired            = "expired"
	ReasonInvalidSignature   = "invalid_signature"
	ReasonInvalid            = "invalid"

	ReasonAdminAccessRequired    = "admin_access_required"
	ReasonOperatorAccessRequired = "operator_access_required"
	ReasonOperatorNotApproved    = "operator_not_approved"
	ReasonAccessDenied           = "access_denied"

	ReasonEmailTaken      = "email_taken"
	ReasonAlreadyApproved = "already_approved"

	ReasonUserNotFound     = "user_not_found"
	ReasonOperatorNotFound = "operator_not_found"
)

type APIError struct {
	Code       string `json:"code"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	label := e.Code
	if e.Reason != "" {
		label = e.Code + "(" + e.Reason + ")"
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", label, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", label, e.Message)
}

// WithDetails returns a copy carrying the given details.
func (e *APIError) WithDetails(details string) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func Validation(reason string, message string) *APIError {
	return &APIError{Code: CodeValidation, Reason: reason, Message: message, HTTPStatus: http.StatusBadRequest}
}

func Unauthorized(reason string, message string) *APIError {
	return &APIError{Code: CodeAuth, Reason: reason, Message: message, HTTPStatus: http.StatusUnauthorized}
}

func Forbidden(reason string, message string) *APIError {
	return &APIError{Code: CodeForbidden, Reason: reason, Message: message, HTTPStatus: http.StatusForbidden}
}

func Conflict(reason string, message string) *APIError {
	return &APIError{Code: CodeConflict, Reason: reason, Message: message, HTTPStatus: http.StatusConflict}
}

func NotFound(reason string, message string) *APIError {
	return &APIError{Code: CodeNotFound, Reason: reason, Message: message, HTTPStatus: http.StatusNotFound}
}

// ReasonOf returns the reason of the first APIError in err's chain.
func ReasonOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}

	return ""
}

// HasReason reports whether err carries the given code and reason.
func HasReason(err error, code string, reason string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Code == code && apiErr.Reason == reason
}
