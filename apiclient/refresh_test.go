package apiclient_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/jrsteele09/medassist-client/apiclient"
	"github.com/jrsteele09/medassist-client/credentials"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type endedCall struct {
	cause error
}

type hookRecorder struct {
	mu    sync.Mutex
	calls []endedCall
}

func (h *hookRecorder) hook(_ context.Context, cause error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, endedCall{cause: cause})
}

func (h *hookRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

func TestRefresh_ReplaysWithNewToken(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, staleAccess, storedRefr)

	var got echo
	require.NoError(t, f.client.JSON(t.Context(), apiclient.Get("/appointments/"), &got))

	require.Equal(t, "Bearer "+freshAccess, got.Auth)
	require.Equal(t, 1, f.api.refreshCount())
	require.Equal(t, []string{"Bearer " + staleAccess, "Bearer " + freshAccess}, f.api.auths())
	require.JSONEq(t, `{"refresh":"`+storedRefr+`"}`, f.api.refreshBodies[0])
	require.Empty(t, f.api.refreshAuth[0], "refresh call must not carry the stale access token")

	access, _ := f.store.Value(credentials.AccessToken)
	require.Equal(t, freshAccess, access)
	refresh, _ := f.store.Value(credentials.RefreshToken)
	require.Equal(t, storedRefr, refresh, "refresh token is kept when the server does not rotate it")
}

func TestRefresh_StoresRotatedRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, staleAccess, storedRefr)
	f.api.nextRefresh = rotatedRefr

	_, err := f.client.Do(t.Context(), apiclient.Get("/records/"))
	require.NoError(t, err)

	refresh, _ := f.store.Value(credentials.RefreshToken)
	require.Equal(t, rotatedRefr, refresh)
}

func TestRefresh_NoRefreshTokenSkipsNetwork(t *testing.T) {
	hooks := &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(hooks.hook))
	f.seed(t, staleAccess, "")

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	require.Equal(t, 0, f.api.refreshCount())

	_, ok := f.store.Value(credentials.AccessToken)
	require.False(t, ok)

	require.Equal(t, 1, hooks.count())
	require.ErrorIs(t, hooks.calls[0].cause, apperrors.ErrNoRefreshToken)
}

func TestRefresh_FailureReturnsOriginal401AndClearsSession(t *testing.T) {
	hooks := &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(hooks.hook))
	f.seed(t, staleAccess, storedRefr)
	f.api.refreshStatus = http.StatusUnauthorized

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.Error(t, err)

	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "/appointments/", apiErr.Path)
	require.Equal(t, detailBadTok, apiErr.Detail())
	require.NotErrorIs(t, err, apperrors.ErrRefreshRejected)

	require.Equal(t, 1, f.api.refreshCount())
	require.Len(t, f.api.auths(), 1, "no replay after a failed refresh")

	_, ok = f.store.Value(credentials.AccessToken)
	require.False(t, ok)
	_, ok = f.store.Value(credentials.RefreshToken)
	require.False(t, ok)

	require.Equal(t, 1, hooks.count())
	require.ErrorIs(t, hooks.calls[0].cause, apperrors.ErrRefreshRejected)
}

func TestRefresh_MalformedResponseEndsSession(t *testing.T) {
	hooks := &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(hooks.hook))
	f.seed(t, staleAccess, storedRefr)
	f.api.refreshBody = `{"refresh":"only-refresh"}`

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)

	_, ok := f.store.Value(credentials.RefreshToken)
	require.False(t, ok)
	require.Equal(t, 1, hooks.count())
	require.ErrorIs(t, hooks.calls[0].cause, apperrors.ErrMalformedRefresh)
}

func TestRefresh_ReplayedRequestIsNotRefreshedAgain(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, staleAccess, storedRefr)

	_, err := f.client.Do(t.Context(), apiclient.Get("/always401/"))
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)

	require.Equal(t, 1, f.api.refreshCount())
	require.Equal(t, []string{"Bearer " + staleAccess, "Bearer " + freshAccess}, f.api.auths())

	// the refresh itself succeeded, so the session stays
	access, _ := f.store.Value(credentials.AccessToken)
	require.Equal(t, freshAccess, access)
}

func TestRefresh_UnauthenticatedRequestWithStoredRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.seed(t, "", storedRefr)

	var got echo
	require.NoError(t, f.client.JSON(t.Context(), apiclient.Get("/dashboard/"), &got))
	require.Equal(t, []string{"", "Bearer " + freshAccess}, f.api.auths())
	require.Equal(t, 1, f.api.refreshCount())
}

func TestRefresh_SingleFlightSharesOneExchange(t *testing.T) {
	const callers = 6

	f := setupTestFixture(t)
	f.seed(t, staleAccess, storedRefr)
	f.api.refreshGate = func(api *fakeAPI) bool { return api.unauthorized >= callers }

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.client.Do(t.Context(), apiclient.Get("/appointments/"))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.api.refreshCount())
	require.Equal(t, 1, f.store.Sets(credentials.AccessToken)-1, "one refresh write after the seed")
}

func TestRefresh_WithoutSingleFlightEachCallerRefreshes(t *testing.T) {
	const callers = 2

	f := setupTestFixture(t, apiclient.WithSingleFlight(false))
	f.seed(t, staleAccess, storedRefr)
	f.api.refreshGate = func(api *fakeAPI) bool { return api.refreshCalls >= callers }

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.client.Do(t.Context(), apiclient.Get("/appointments/"))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, callers, f.api.refreshCount())
}

func TestRefresh_ReusesTokenRefreshedByAnotherRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := apiclient.NewMetrics(reg)
	f := setupTestFixture(t, apiclient.WithMetrics(metrics))
	f.seed(t, staleAccess, storedRefr)
	f.api.allow(freshAccess)

	// the stale token is rejected, but another request has since stored a fresh one
	rotating := &rotateOnReject{store: f.store, fresh: freshAccess}
	f.api.onReject = rotating.rotate

	var got echo
	require.NoError(t, f.client.JSON(t.Context(), apiclient.Get("/appointments/"), &got))
	require.Equal(t, "Bearer "+freshAccess, got.Auth)
	require.Equal(t, 0, f.api.refreshCount())
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RefreshTotal.WithLabelValues("reused")))
}

type rotateOnReject struct {
	store credentials.Store
	fresh string
}

func (r *rotateOnReject) rotate() {
	_ = r.store.Set(context.Background(), credentials.AccessToken, r.fresh)
}

func TestRefresh_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := apiclient.NewMetrics(reg)
	f := setupTestFixture(t, apiclient.WithMetrics(metrics))
	f.seed(t, staleAccess, storedRefr)

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RefreshTotal.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "401")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues(http.MethodGet, "200")))

	f.api.refreshStatus = http.StatusBadRequest
	require.NoError(t, f.store.Set(t.Context(), credentials.AccessToken, "revoked"))
	_, err = f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.Error(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RefreshTotal.WithLabelValues("failed")))

	_, err = f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.Error(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RefreshTotal.WithLabelValues("no_refresh_token")))
}

func TestRefresh_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := setupTestFixture(t, apiclient.WithTracerProvider(tp))
	f.seed(t, staleAccess, storedRefr)

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.NoError(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	require.ElementsMatch(t, []string{"apiclient.Refresh", "apiclient.Do"}, names)
}

func TestRefresh_SetSessionEndedHookReplacesHook(t *testing.T) {
	first, second := &hookRecorder{}, &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(first.hook))
	f.client.SetSessionEndedHook(second.hook)
	f.seed(t, staleAccess, "")

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.Error(t, err)
	require.Equal(t, 0, first.count())
	require.Equal(t, 1, second.count())
}

func TestRefresh_NetworkFailureReturnsOriginal401AndClearsSession(t *testing.T) {
	hooks := &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(hooks.hook))
	f.seed(t, staleAccess, storedRefr)
	f.api.refreshDrop = true

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, detailBadTok, apiErr.Detail())

	require.Equal(t, 1, f.api.refreshCount())
	require.Len(t, f.api.auths(), 1)

	_, ok = f.store.Value(credentials.AccessToken)
	require.False(t, ok)
	_, ok = f.store.Value(credentials.RefreshToken)
	require.False(t, ok)

	require.Equal(t, 1, hooks.count())
	require.ErrorContains(t, hooks.calls[0].cause, "request failed")
	require.NotErrorIs(t, hooks.calls[0].cause, apperrors.ErrRefreshRejected)
}

func TestRefresh_StoreWriteFailureReturnsOriginal401AndClearsSession(t *testing.T) {
	hooks := &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(hooks.hook))
	f.seed(t, staleAccess, storedRefr)
	f.store.SetFailWrites(true)

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, detailBadTok, apiErr.Detail())

	require.Equal(t, 1, f.api.refreshCount())
	require.Len(t, f.api.auths(), 1, "the refreshed token was never stored, so nothing is replayed")

	_, ok = f.store.Value(credentials.AccessToken)
	require.False(t, ok)
	_, ok = f.store.Value(credentials.RefreshToken)
	require.False(t, ok)

	require.Equal(t, 1, hooks.count())
	require.ErrorIs(t, hooks.calls[0].cause, apperrors.ErrStoreUnavailable)
}

func TestRefresh_EndedSessionIsNotEndedAgain(t *testing.T) {
	hooks := &hookRecorder{}
	f := setupTestFixture(t, apiclient.WithSessionEndedHook(hooks.hook))
	f.seed(t, staleAccess, storedRefr)
	f.api.refreshStatus = http.StatusUnauthorized

	_, err := f.client.Do(t.Context(), apiclient.Get("/appointments/"))
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	require.Equal(t, 1, hooks.count())

	// late requests from the same burst find both tokens gone
	for range 3 {
		_, err = f.client.Do(t.Context(), apiclient.Get("/appointments/"))
		require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	}
	require.Equal(t, 1, hooks.count())
	require.Equal(t, 1, f.api.refreshCount())
}
