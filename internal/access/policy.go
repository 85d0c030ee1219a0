// Package access decides whether an identity may reach a route scope.
//
// Every decision is a single lookup in a closed table keyed by scope, role and
// verification status. Combinations missing from the table are denied.
package access

import (
	"go-dive-auth/internal/model"
	"go-dive-auth/pkg/apierror"
)

type Scope string

const (
	ScopeAuthenticated Scope = "authenticated"
	ScopeAdmin         Scope = "admin"
	ScopeOperator      Scope = "operator"
)

type Decision struct {
	Allowed bool
	Reason  string
	Message string
}

// Err is nil for allowed decisions and a 403 APIError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apierror.Forbidden(d.Reason, d.Message)
}

type key struct {
	scope  Scope
	role   model.Role
	status model.VerificationStatus
}

var (
	allow = Decision{Allowed: true}

	adminRequired = Decision{
		Reason:  apierror.ReasonAdminAccessRequired,
		Message: "Admin access required",
	}
	operatorRequired = Decision{
		Reason:  apierror.ReasonOperatorAccessRequired,
		Message: "Dive operator access required",
	}
	operatorNotApproved = Decision{
		Reason:  apierror.ReasonOperatorNotApproved,
		Message: "Your dive operator account has not been approved yet",
	}
	denied = Decision{
		Reason:  apierror.ReasonAccessDenied,
		Message: "Access denied",
	}
)

var policy = map[key]Decision{
	{ScopeAuthenticated, model.RoleRegular, model.VerificationNone}:          allow,
	{ScopeAuthenticated, model.RoleAdmin, model.VerificationNone}:            allow,
	{ScopeAuthenticated, model.RoleDiveOperator, model.VerificationPending}:  allow,
	{ScopeAuthenticated, model.RoleDiveOperator, model.VerificationApproved}: allow,
	{ScopeAuthenticated, model.RoleDiveOperator, model.VerificationRejected}: allow,

	{ScopeAdmin, model.RoleAdmin, model.VerificationNone}:            allow,
	{ScopeAdmin, model.RoleRegular, model.VerificationNone}:          adminRequired,
	{ScopeAdmin, model.RoleDiveOperator, model.VerificationPending}:  adminRequired,
	{ScopeAdmin, model.RoleDiveOperator, model.VerificationApproved}: adminRequired,
	{ScopeAdmin, model.RoleDiveOperator, model.VerificationRejected}: adminRequired,

	{ScopeOperator, model.RoleDiveOperator, model.VerificationApproved}: allow,
	{ScopeOperator, model.RoleDiveOperator, model.VerificationPending}:  operatorNotApproved,
	{ScopeOperator, model.RoleDiveOperator, model.VerificationRejected}: operatorNotApproved,
	{ScopeOperator, model.RoleRegular, model.VerificationNone}:          operatorRequired,
	{ScopeOperator, model.RoleAdmin, model.VerificationNone}:            operatorRequired,
}

func Decide(scope Scope, identity model.Identity) Decision {
	if d, ok := policy[key{scope, identity.Role, identity.Verification}]; ok {
		return d
	}
	return denied
}
