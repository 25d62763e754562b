package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/medassist-client/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Do sends req and returns the 2xx response or an *APIError.
//
// The current access token is attached when one is stored. A 401 triggers at
// most one refresh and one replay; the replay's result is final.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	// store warnings raised while handling this request go to the client logger
	ctx = c.logger.WithContext(ctx)
	ctx, span := c.tracer.Start(ctx, "apiclient.Do", trace.WithAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	token := credentials.Lookup(ctx, c.store, credentials.AccessToken)
	resp, err := c.execute(ctx, req, NotRetried, requestID, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	return resp, nil
}

// JSON sends req and decodes a successful body into out.
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// execute is one pass through the pipeline for req in the given retry state.
func (c *Client) execute(ctx context.Context, req Request, state RetryState, requestID, token string) (*Response, error) {
	resp, err := c.send(ctx, req, state, requestID, token)
	if err == nil {
		return resp, nil
	}

	apiErr, ok := AsAPIError(err)
	if !ok || !apiErr.Unauthorized() || state == Retried {
		return nil, err
	}

	newToken, refreshErr := c.recoverSession(ctx, token)
	if refreshErr != nil {
		if ctx.Err() != nil {
			return nil, c.transportError(ctx, req, requestID, ctx.Err())
		}
		c.logger.Debug().Err(refreshErr).Str("request_id", requestID).Str("path", req.Path).
			Msg("refresh failed, returning original 401")
		return nil, apiErr
	}
	return c.execute(ctx, req, Retried, requestID, newToken)
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, req Request, state RetryState, requestID, token string) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req, requestID, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.Method, "error", time.Since(start))
		return nil, c.transportError(ctx, req, requestID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.observeRequest(req.Method, "error", time.Since(start))
		return nil, c.transportError(ctx, req, requestID, err)
	}

	elapsed := time.Since(start)
	c.metrics.observeRequest(req.Method, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Str("attempt", state.String()).
		Bool("authenticated", token != "").
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Kind:      KindHTTP,
			Method:    req.Method,
			Path:      req.Path,
			RequestID: requestID,
			Status:    resp.StatusCode,
			Body:      body,
		}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// newHTTPRequest builds the wire request: JSON headers, request ID, caller
// headers and, when token is non-empty, the bearer Authorization header.
func (c *Client) newHTTPRequest(ctx context.Context, req Request, requestID, token string) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("[apiclient] failed to encode %s %s body: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req), body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient] failed to build %s %s: %w", req.Method, req.Path, err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)
	httpReq.Header.Set(headerRequestID, requestID)
	if token != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+token)
	} else {
		httpReq.Header.Del(headerAuthorization)
	}
	return httpReq, nil
}

func (c *Client) resolve(req Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

func (c *Client) transportError(ctx context.Context, req Request, requestID string, err error) *APIError {
	kind := KindNetwork
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind = KindCancelled
		err = ctxErr
	}
	return &APIError{
		Kind:      kind,
		Method:    req.Method,
		Path:      req.Path,
		RequestID: requestID,
		Err:       err,
	}
}
