package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

const maxRejectionReasonLength = 500

type VerificationAction string

const (
	ActionApprove VerificationAction = "approve"
	ActionReject  VerificationAction = "reject"
	ActionReset   VerificationAction = "reset"
)

// nextVerificationState is the whole verification state machine. Every
// transition writes status, verified_at and rejection_reason together.
func nextVerificationState(current model.VerificationStatus, action VerificationAction, reason string, now time.Time) (model.VerificationState, error) {
	switch action {
	case ActionApprove:
		if current == model.VerificationApproved {
			return model.VerificationState{}, apierror.Conflict(apierror.ReasonAlreadyApproved, "Dive operator is already approved")
		}
		verifiedAt := now
		return model.VerificationState{Status: model.VerificationApproved, VerifiedAt: &verifiedAt}, nil

	case ActionReject:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return model.VerificationState{}, reasonRequired()
		}
		return model.VerificationState{Status: model.VerificationRejected, RejectionReason: &reason}, nil

	case ActionReset:
		return model.PendingVerification(), nil

	default:
		return model.VerificationState{}, fmt.Errorf("unknown verification action %q", action)
	}
}

type VerificationService struct {
	store      UserStore
	identities IdentityCache
	now        func() time.Time
}

func NewVerificationService(store UserStore, identities IdentityCache) *VerificationService {
	return &VerificationService{store: store, identities: identities, now: utcNow}
}

func (s *VerificationService) Approve(ctx context.Context, operatorID string) (model.User, error) {
	return s.transition(ctx, operatorID, ActionApprove, "")
}

// Reject validates the reason before the operator is looked up.
func (s *VerificationService) Reject(ctx context.Context, operatorID string, reason string) (model.User, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.User{}, reasonRequired()
	}
	if utf8.RuneCountInString(reason) > maxRejectionReasonLength {
		return model.User{}, apierror.Validation(apierror.ReasonInvalidField,
			fmt.Sprintf("reason must be at most %d characters", maxRejectionReasonLength))
	}

	return s.transition(ctx, operatorID, ActionReject, reason)
}

func (s *VerificationService) Reset(ctx context.Context, operatorID string) (model.User, error) {
	return s.transition(ctx, operatorID, ActionReset, "")
}

func (s *VerificationService) transition(ctx context.Context, operatorID string, action VerificationAction, reason string) (model.User, error) {
	var from model.VerificationStatus

	user, err := s.store.TransitionVerification(ctx, operatorID, func(current model.User) (model.VerificationState, error) {
		from = current.VerificationStatus()
		return nextVerificationState(from, action, reason, s.now())
	})
	if errors.Is(err, model.ErrOperatorNotFound) {
		return model.User{}, operatorNotFound()
	}
	if err != nil {
		return model.User{}, err
	}

	if s.identities != nil {
		if err := s.identities.Invalidate(ctx, operatorID); err != nil {
			slog.Warn("identity cache invalidation failed", "user_id", operatorID, "error", err)
		}
	}

	slog.Info("dive operator verification changed",
		"operator_id", operatorID,
		"action", string(action),
		"from", string(from),
		"to", string(user.VerificationStatus()),
	)
	return user, nil
}

// ListOperators filters by status when rawStatus is non-empty.
func (s *VerificationService) ListOperators(ctx context.Context, rawStatus string) ([]model.User, error) {
	status := model.VerificationNone
	if strings.TrimSpace(rawStatus) != "" {
		parsed, ok := model.ParseVerificationStatus(rawStatus)
		if !ok {
			return nil, apierror.Validation(apierror.ReasonInvalidStatus,
				"status must be one of pending, approved, rejected").WithDetails(rawStatus)
		}
		status = parsed
	}

	return s.store.ListOperators(ctx, status)
}

func (s *VerificationService) GetOperator(ctx context.Context, operatorID string) (model.User, error) {
	user, err := s.store.FindByID(ctx, operatorID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, operatorNotFound()
	}
	if err != nil {
		return model.User{}, err
	}
	if !user.IsDiveOperator() {
		return model.User{}, operatorNotFound()
	}
	return user, nil
}

func reasonRequired() error {
	return apierror.Validation(apierror.ReasonReasonRequired, "A rejection reason is required")
}

func operatorNotFound() error {
	return apierror.NotFound(apierror.ReasonOperatorNotFound, "Dive operator not found")
}
