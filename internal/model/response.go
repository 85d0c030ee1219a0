package model

import "time"

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	Total int `json:"total"`
}

type AuthPayload struct {
	User UserView `json:"user"`
	TokenPair
	Warning            string             `json:"warning,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
}

type UserEnvelope struct {
	User UserView `json:"user"`
}

type ProfileEnvelope struct {
	Profile UserView `json:"profile"`
}

type DashboardPayload struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

type OperatorDashboardPayload struct {
	VerifiedAt *time.Time `json:"verified_at"`
	Documents  []Document `json:"documents"`
}

type OperatorEnvelope struct {
	DiveOperator UserView `json:"dive_operator"`
}

type OperatorList struct {
	Total         int        `json:"total"`
	DiveOperators []UserView `json:"dive_operators"`
}
