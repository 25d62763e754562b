package backendfake

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/medassist-client/internal/utils"
	"github.com/jrsteele09/medassist-client/tokens"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userContextKey contextKey = "backendfake_user"

const (
	detailBadCredentials = "No active account found with the given credentials"
	detailBadAccessToken = "Given token not valid for any token type"
	detailBadRefresh     = "Token is invalid or expired"
	detailNoCredentials  = "Authentication credentials were not provided."
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// echoResponse is returned by every resource path.
type echoResponse struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Query  string          `json:"query,omitempty"`
	UserID int             `json:"user_id"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// LoginHandler handles POST /api/auth/login/.
func (b *Backend) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.userByEmail(req.Email)
	if u == nil || !CheckPasswordHash(req.Password, u.PasswordHash) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailBadCredentials})
		return
	}

	pair, err := b.issuePair(u)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue tokens")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u.document(), "tokens": pair})
}

// RegisterHandler handles POST /api/auth/register/.
func (b *Backend) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if errs := b.validateRegistration(body); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	password, _ := body["password"].(string)
	hash, err := HashPassword(password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "hash error"})
		return
	}

	email, _ := body["email"].(string)
	profile := map[string]any{}
	for k, v := range body {
		switch k {
		case "email", "password", "password2":
		default:
			profile[k] = v
		}
	}
	u := b.addUserLocked(email, hash, profile)

	pair, err := b.issuePair(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u.document(), "tokens": pair})
}

// RefreshHandler handles POST /api/auth/token/refresh/.
func (b *Backend) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++

	if b.refreshStatus != 0 {
		writeJSON(w, b.refreshStatus, map[string]string{"detail": detailBadRefresh, "code": "token_not_valid"})
		return
	}

	u, ok := b.refreshTokenOwner(req.Refresh)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailBadRefresh, "code": "token_not_valid"})
		return
	}

	access, err := b.createAccessToken(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token error"})
		return
	}
	resp := tokens.RefreshResponse{Access: access}
	if b.rotate {
		refresh, err := b.createRefreshToken(u)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token error"})
			return
		}
		resp.Refresh = utils.Ptr(refresh)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ProfileHandler handles GET /api/auth/profile/.
func (b *Backend) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())

	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, u.document())
}

// UpdateProfileHandler handles PATCH /api/auth/profile/. The email may be
// changed but not blanked; the password cannot be changed here.
func (b *Backend) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	errs := map[string][]string{}
	if v, ok := patch["email"]; ok {
		if email, _ := v.(string); strings.TrimSpace(email) == "" {
			errs["email"] = []string{"This field may not be blank."}
		}
	}
	if _, ok := patch["password"]; ok {
		errs["password"] = []string{"Use the password change endpoint."}
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	for k, v := range patch {
		switch k {
		case "id":
		case "email":
			u.Email, _ = v.(string)
		default:
			u.Profile[k] = v
		}
	}
	writeJSON(w, http.StatusOK, u.document())
}

// EchoHandler answers any authenticated resource request with a description of it.
func (b *Backend) EchoHandler(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	body, _ := io.ReadAll(r.Body)

	resp := echoResponse{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, UserID: u.ID}
	if len(body) > 0 && json.Valid(body) {
		resp.Body = body
	}
	writeJSON(w, http.StatusOK, resp)
}

// RequireAuth rejects requests without a valid bearer access token.
func (b *Backend) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailNoCredentials})
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailBadAccessToken})
			return
		}

		b.mu.Lock()
		u, ok := b.userForAccessToken(raw)
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailBadAccessToken, "code": "token_not_valid"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
	})
}

func userFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey).(*User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("backendfake: failed to write response")
	}
}
