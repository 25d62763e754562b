package tokens

// Pair is the token pair returned by login and registration.
type Pair struct {
	// Access is the short-lived bearer credential.
	// Usage: "Authorization: Bearer <access>"
	Access string `json:"access"`

	// Refresh is the longer-lived credential used only against the refresh endpoint.
	Refresh string `json:"refresh"`
}

// RefreshRequest is the body of POST /auth/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse is returned by the refresh endpoint.
// Refresh is only present when the backend rotates refresh tokens.
type RefreshResponse struct {
	Access  string  `json:"access"`
	Refresh *string `json:"refresh,omitempty"`
}
