package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a successful (2xx) API response.
type Response struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[apiclient Decode] failed to decode response body: %w", err)
	}
	return nil
}
