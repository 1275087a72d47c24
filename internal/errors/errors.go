// Package errors defines typed errors with categories for user-friendly reporting.
// Commands switch on Kind to decide what to tell the user; the wrapped Err
// keeps the technical cause for logs.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NotLoggedIn indicates a protected command was run without a session.
	NotLoggedIn Kind = "not_logged_in"
	// InvalidCredentials indicates the controller rejected username/password.
	InvalidCredentials Kind = "invalid_credentials"
	// SessionExpired indicates the stored token expired and could not be refreshed.
	SessionExpired Kind = "session_expired"
	// ServerRejected indicates an unexpected non-2xx response from the controller.
	ServerRejected Kind = "server_rejected"
	// SecureStorage indicates the OS keychain could not be used.
	SecureStorage Kind = "secure_storage"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Is reports whether any error in err's chain is an *E of the given kind.
func Is(err error, kind Kind) bool {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
