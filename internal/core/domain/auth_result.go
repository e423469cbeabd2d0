package domain

// AuthOutcome is the branch taken by a login-phase resolver.
type AuthOutcome string

const (
	// AuthAccepted means the caller proved who they are.
	AuthAccepted AuthOutcome = "accepted"
	// AuthRejected means the credentials were checked and refused.
	AuthRejected AuthOutcome = "rejected"
	// AuthFailed means the check itself could not run (store or provider failure).
	AuthFailed AuthOutcome = "failed"
)

// AuthFailureReason is recorded in the audit log. Callers only ever see a
// generic message, except for the lockout message.
type AuthFailureReason string

const (
	ReasonUnknownUser     AuthFailureReason = "unknown_user"
	ReasonInvalidPassword AuthFailureReason = "invalid_password"
	ReasonNoLocalPassword AuthFailureReason = "no_local_password"
	ReasonAccountLocked   AuthFailureReason = "account_locked"
	ReasonEmailUnverified AuthFailureReason = "email_unverified"
	ReasonMissingAccount  AuthFailureReason = "missing_account_id"
)

// AuthResult is the tagged result of a login or provider callback.
// Exactly one of User (accepted), Reason (rejected) or Err (failed) is meaningful.
type AuthResult struct {
	Outcome AuthOutcome
	User    *User
	Reason  AuthFailureReason
	Err     error
}

// Accepted wraps an authenticated user.
func Accepted(user *User) AuthResult {
	return AuthResult{Outcome: AuthAccepted, User: user}
}

// Rejected wraps a refusal reason.
func Rejected(reason AuthFailureReason) AuthResult {
	return AuthResult{Outcome: AuthRejected, Reason: reason}
}

// Failed wraps an infrastructure error.
func Failed(err error) AuthResult {
	return AuthResult{Outcome: AuthFailed, Err: err}
}

// IsAccepted is a convenience for callers that only care about success.
func (r AuthResult) IsAccepted() bool {
	return r.Outcome == AuthAccepted && r.User != nil
}
