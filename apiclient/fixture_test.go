package apiclient_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/medassist-client/apiclient"
	"github.com/jrsteele09/medassist-client/credentials"
	credentialsrepofake "github.com/jrsteele09/medassist-client/credentials/repofake"
	"github.com/stretchr/testify/require"
)

const (
	staleAccess  = "access-1"
	freshAccess  = "access-2"
	storedRefr   = "refresh-1"
	rotatedRefr  = "refresh-2"
	detailBadTok = "Given token not valid for any token type"
)

// fakeAPI is a scripted backend. Resource paths answer 200 for a valid bearer
// token and 401 otherwise; /always401/ always answers 401, /boom/ answers 500,
// /public/ ignores authentication.
type fakeAPI struct {
	mu             sync.Mutex
	valid          map[string]bool
	seenAuth       []string
	refreshCalls   int
	refreshBodies  []string
	refreshAuth    []string
	refreshStatus  int
	refreshBody    string
	refreshDrop    bool
	nextAccess     string
	nextRefresh    string
	unauthorized   int
	refreshGate    func(f *fakeAPI) bool
	gateSignal     chan struct{}
	lastRequestIDs []string
	onReject       func()
}

type echo struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Query  string          `json:"query"`
	Auth   string          `json:"auth"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		valid:      map[string]bool{},
		nextAccess: freshAccess,
		gateSignal: make(chan struct{}, 64),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api"+apiclient.RefreshPath {
		f.serveRefresh(w, r)
		return
	}

	auth := r.Header.Get("Authorization")
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.seenAuth = append(f.seenAuth, auth)
	f.lastRequestIDs = append(f.lastRequestIDs, r.Header.Get("X-Request-ID"))
	ok := f.valid[strings.TrimPrefix(auth, "Bearer ")]
	f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/boom/"):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "server exploded"})
		return
	case strings.HasSuffix(r.URL.Path, "/public/"):
		ok = true
	case strings.HasSuffix(r.URL.Path, "/always401/"):
		ok = false
	}

	if !ok {
		f.mu.Lock()
		f.unauthorized++
		onReject := f.onReject
		f.mu.Unlock()
		if onReject != nil {
			onReject()
		}
		f.signal()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailBadTok})
		return
	}

	e := echo{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: auth}
	if len(body) > 0 {
		e.Body = body
	}
	writeJSON(w, http.StatusOK, e)
}

func (f *fakeAPI) serveRefresh(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.refreshCalls++
	f.refreshBodies = append(f.refreshBodies, string(body))
	f.refreshAuth = append(f.refreshAuth, r.Header.Get("Authorization"))
	gate := f.refreshGate
	f.mu.Unlock()
	f.signal()

	if gate != nil {
		deadline := time.After(2 * time.Second)
	wait:
		for {
			f.mu.Lock()
			open := gate(f)
			f.mu.Unlock()
			if open {
				break
			}
			select {
			case <-f.gateSignal:
			case <-deadline:
				break wait
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshDrop {
		// close the connection without answering
		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			_ = conn.Close()
		}
		return
	}
	if f.refreshStatus != 0 {
		writeJSON(w, f.refreshStatus, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	if f.refreshBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, f.refreshBody)
		return
	}
	f.valid[f.nextAccess] = true
	resp := map[string]string{"access": f.nextAccess}
	if f.nextRefresh != "" {
		resp["refresh"] = f.nextRefresh
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeAPI) signal() {
	select {
	case f.gateSignal <- struct{}{}:
	default:
	}
}

func (f *fakeAPI) allow(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid[token] = true
}

func (f *fakeAPI) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

func (f *fakeAPI) auths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seenAuth...)
}

func (f *fakeAPI) requestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lastRequestIDs...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testFixture wires a client to the fake backend and an in-memory store.
type testFixture struct {
	api    *fakeAPI
	srv    *httptest.Server
	store  *credentialsrepofake.FakeCredentialRepo
	client *apiclient.Client
}

func setupTestFixture(t *testing.T, opts ...apiclient.Option) *testFixture {
	t.Helper()
	api, srv := newFakeAPI(t)
	store := credentialsrepofake.NewFakeCredentialRepo()
	client, err := apiclient.New(srv.URL+"/api", store, opts...)
	require.NoError(t, err)
	return &testFixture{api: api, srv: srv, store: store, client: client}
}

func (f *testFixture) seed(t *testing.T, access, refresh string) {
	t.Helper()
	if access != "" {
		require.NoError(t, f.store.Set(t.Context(), credentials.AccessToken, access))
	}
	if refresh != "" {
		require.NoError(t, f.store.Set(t.Context(), credentials.RefreshToken, refresh))
	}
}
