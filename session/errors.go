package session

import (
	"sort"
	"strings"

	"github.com/jrsteele09/medassist-client/apiclient"
)

const (
	msgLoginFailed         = "Login failed. Please check your credentials."
	msgRegistrationFailed  = "Registration failed"
	msgProfileUpdateFailed = "Profile update failed"
	msgLoadUserFailed      = "Failed to load user data"
)

// Error is a user-facing session failure. Message is suitable for display;
// Err keeps the underlying cause.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// detailMessage returns the backend's "detail" text or fallback.
func detailMessage(err error, fallback string) string {
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		if d := apiErr.Detail(); d != "" {
			return d
		}
	}
	return fallback
}

// fieldMessage formats validation errors one field per line as "field: a, b".
// Fields are sorted so the message is stable.
func fieldMessage(err error, fallback string) string {
	apiErr, ok := apiclient.AsAPIError(err)
	if !ok || apiErr.Kind != apiclient.KindHTTP {
		return fallback
	}
	fieldErrs := apiErr.FieldErrors()
	if len(fieldErrs) == 0 {
		return fallback
	}

	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f+": "+strings.Join(fieldErrs[f], ", "))
	}
	return strings.Join(lines, "\n")
}
