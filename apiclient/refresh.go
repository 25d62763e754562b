package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/medassist-client/credentials"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/jrsteele09/medassist-client/internal/utils"
	"github.com/jrsteele09/medassist-client/tokens"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	refreshSuccess   = "success"
	refreshNoToken   = "no_refresh_token"
	refreshFailed    = "failed"
	refreshReused    = "reused"
	refreshGroupKey  = "refresh"
	maxRefreshBodyKB = 64
)

// recoverSession returns an access token to replay a 401'd request with.
// sentToken is the token the failed attempt carried.
func (c *Client) recoverSession(ctx context.Context, sentToken string) (string, error) {
	// a concurrent refresh may already have replaced the token this request was sent with
	if current := credentials.Lookup(ctx, c.store, credentials.AccessToken); current != "" && current != sentToken {
		c.metrics.observeRefresh(refreshReused)
		return current, nil
	}
	return c.refresh(ctx)
}

// refresh obtains a new access token, sharing one in-flight exchange between
// concurrent callers when single-flight is enabled.
func (c *Client) refresh(ctx context.Context) (string, error) {
	if !c.singleFlight {
		return c.exchange(ctx)
	}

	// the shared exchange must not die with whichever caller started it
	ch := c.refreshGroup.DoChan(refreshGroupKey, func() (any, error) {
		return c.exchange(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// exchange runs the refresh protocol once: read the refresh token, call the
// refresh endpoint, store the result. Any failure other than cancellation
// tears the session down, unless no tokens are stored at all.
func (c *Client) exchange(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "apiclient.Refresh")
	defer span.End()

	teardown := true
	fail := func(result string, err error) (string, error) {
		span.SetAttributes(attribute.String("refresh.result", result))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.observeRefresh(result)
		if teardown && ctx.Err() == nil {
			c.endSession(ctx, err)
		}
		return "", err
	}

	refreshToken := credentials.Lookup(ctx, c.store, credentials.RefreshToken)
	if refreshToken == "" {
		// with no access token either there is no session left to end,
		// typically because a concurrent exchange already tore it down
		teardown = credentials.Lookup(ctx, c.store, credentials.AccessToken) != ""
		return fail(refreshNoToken, apperrors.ErrNoRefreshToken)
	}

	pair, err := c.requestRefresh(ctx, refreshToken)
	if err != nil {
		return fail(refreshFailed, err)
	}

	if err := c.store.Set(ctx, credentials.AccessToken, pair.Access); err != nil {
		return fail(refreshFailed, fmt.Errorf("[apiclient refresh] failed to store access token: %w", err))
	}
	rotated := utils.Value(pair.Refresh)
	if rotated != "" {
		if err := c.store.Set(ctx, credentials.RefreshToken, rotated); err != nil {
			return fail(refreshFailed, fmt.Errorf("[apiclient refresh] failed to store refresh token: %w", err))
		}
	}

	span.SetAttributes(
		attribute.String("refresh.result", refreshSuccess),
		attribute.Bool("refresh.rotated", rotated != ""),
	)
	c.metrics.observeRefresh(refreshSuccess)
	c.logger.Info().Bool("rotated", rotated != "").Msg("access token refreshed")
	return pair.Access, nil
}

// requestRefresh posts the refresh token to RefreshPath. It deliberately bypasses
// the pipeline: no Authorization header, no 401 handling.
func (c *Client) requestRefresh(ctx context.Context, refreshToken string) (*tokens.RefreshResponse, error) {
	data, err := json.Marshal(tokens.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("[apiclient refresh] failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RefreshPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("[apiclient refresh] failed to build request: %w", err)
	}
	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, contentTypeJSON)
	req.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[apiclient refresh] request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRefreshBodyKB<<10))
	if err != nil {
		return nil, fmt.Errorf("[apiclient refresh] failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrRefreshRejected, resp.StatusCode)
	}

	var out tokens.RefreshResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedRefresh, err)
	}
	if out.Access == "" {
		return nil, apperrors.ErrMalformedRefresh
	}
	return &out, nil
}

// endSession clears both stored tokens and notifies the session hook.
func (c *Client) endSession(ctx context.Context, cause error) {
	if err := credentials.DestroySession(ctx, c.store); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear credentials after refresh failure")
	}
	c.logger.Warn().Err(cause).Msg("session ended, re-authentication required")

	if hook := c.sessionEndedHook(); hook != nil {
		hook(ctx, cause)
	}
}
