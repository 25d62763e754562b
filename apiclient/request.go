package apiclient

import (
	"net/http"
	"net/url"
)

// RetryState travels with a Request through the pipeline and records whether
// it has already been replayed after a refresh.
type RetryState int

const (
	NotRetried RetryState = iota
	Retried
)

func (s RetryState) String() string {
	if s == Retried {
		return "retried"
	}
	return "initial"
}

// Request describes one API call. It is a value: the pipeline never mutates it,
// replays reuse the same descriptor with a different RetryState.
type Request struct {
	Method string
	// Path is relative to the client base URL, e.g. "/appointments/12/".
	Path  string
	Query url.Values
	// Body is JSON encoded when non-nil.
	Body   any
	Header http.Header
}

func Get(path string) Request {
	return Request{Method: http.MethodGet, Path: path}
}

func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

func Patch(path string, body any) Request {
	return Request{Method: http.MethodPatch, Path: path, Body: body}
}

func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

// WithQuery returns a copy of r carrying q.
func (r Request) WithQuery(q url.Values) Request {
	r.Query = q
	return r
}

// WithHeader returns a copy of r with key set to value.
func (r Request) WithHeader(key, value string) Request {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	r.Header = h
	return r
}
