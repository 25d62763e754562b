package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/jrsteele09/medassist-client/internal/utils"
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	// KindNetwork means no response was received.
	KindNetwork ErrorKind = iota + 1
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP
	// KindCancelled means the caller's context ended first.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network error")
	ErrCancelled    = errors.New("request cancelled")
	ErrHTTP         = errors.New("http error")
)

// APIError is the single error type returned by the pipeline.
type APIError struct {
	Kind      ErrorKind
	Method    string
	Path      string
	RequestID string
	// Status and Body are set for KindHTTP.
	Status int
	Body   []byte
	// Err is the transport or context error for KindNetwork and KindCancelled.
	Err error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindHTTP:
		if d := e.Detail(); d != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, d)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	case KindCancelled:
		return fmt.Sprintf("%s %s: cancelled: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, ErrUnauthorized) and the other kind sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Unauthorized()
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrCancelled:
		return e.Kind == KindCancelled
	case ErrHTTP:
		return e.Kind == KindHTTP
	}
	return false
}

// Unauthorized reports whether the server answered 401.
func (e *APIError) Unauthorized() bool {
	return e.Kind == KindHTTP && e.Status == http.StatusUnauthorized
}

// Detail returns the backend's "detail" message, if the body carries one.
func (e *APIError) Detail() string {
	var body struct {
		Detail string `json:"detail"`
	}
	if len(e.Body) == 0 || json.Unmarshal(e.Body, &body) != nil {
		return ""
	}
	return body.Detail
}

// FieldErrors decodes a validation payload of the form {"field": ["msg", ...]}.
// Single string values are accepted as one-element lists. Non-string list
// entries and other shapes are skipped.
func (e *APIError) FieldErrors() map[string][]string {
	var raw map[string]json.RawMessage
	if len(e.Body) == 0 || json.Unmarshal(e.Body, &raw) != nil {
		return nil
	}

	out := make(map[string][]string, len(raw))
	for field, v := range raw {
		var list []any
		if err := json.Unmarshal(v, &list); err == nil {
			out[field] = utils.ToStringSlice(list)
			continue
		}
		var single string
		if err := json.Unmarshal(v, &single); err == nil {
			out[field] = []string{single}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Fields returns the keys of FieldErrors in sorted order.
func (e *APIError) Fields() []string {
	fe := e.FieldErrors()
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
