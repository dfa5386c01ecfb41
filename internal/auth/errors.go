package auth

import (
	"errors"
	"fmt"
)

// Kind classifies authentication failures so the tool layer can surface them
// as structured data rather than bare error strings.
type Kind string

const (
	// KindCredentialsMissing means the profile's configuration is incomplete.
	// Recoverable by operator action; the message enumerates the gaps.
	KindCredentialsMissing Kind = "credentials_missing"
	// KindAuthenticationFailed means the token endpoint rejected the request.
	KindAuthenticationFailed Kind = "authentication_failed"
	// KindDeviceCodeExpired means the user code lapsed before completion.
	KindDeviceCodeExpired Kind = "device_code_expired"
	// KindAuthorizationDeclined means the user refused the sign-in.
	KindAuthorizationDeclined Kind = "authorization_declined"
	// KindDeviceCodeTimeout means polling exceeded the configured budget.
	KindDeviceCodeTimeout Kind = "device_code_timeout"
	// KindInvalidProfile means the profile code is outside the known set.
	KindInvalidProfile Kind = "invalid_profile"
)

// Error is a structured authentication error: a kind, an operator-facing
// message, and optionally the raw upstream response body for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newError builds an *Error without detail.
func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrKind extracts the Kind from err, or empty when err is not an *Error.
func ErrKind(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return ErrKind(err) == kind
}
