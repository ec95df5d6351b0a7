package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
)

// ErrAuthExpired is returned when the credential cannot be made valid
// for this request. The caller must stop before any spreadsheet call
// and surface an authentication-required error.
var ErrAuthExpired = errors.New("authentication expired")

// State is the credential lifecycle state for one request.
type State int

const (
	StateValid State = iota
	StateRefreshing
	StateFailed
)

// Credential is the access/refresh token pair carried in the session.
// It lives only for the duration of one authenticated session and is
// never persisted server-side.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time

	// Expired marks a failed refresh; terminal for the request.
	Expired bool
}

// CredentialManager keeps a Credential valid, refreshing it against
// the identity provider's token endpoint when expired.
type CredentialManager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	now          func() time.Time
}

// NewCredentialManager creates a CredentialManager refreshing against
// Google's token endpoint.
func NewCredentialManager(clientID, clientSecret string) *CredentialManager {
	return &CredentialManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     google.Endpoint.TokenURL,
		httpClient:   http.DefaultClient,
		now:          time.Now,
	}
}

// NewCredentialManagerForEndpoint is like NewCredentialManager but
// refreshes against a custom token endpoint. Used by tests.
func NewCredentialManagerForEndpoint(clientID, clientSecret, tokenURL string) *CredentialManager {
	m := NewCredentialManager(clientID, clientSecret)
	m.tokenURL = tokenURL
	return m
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// EnsureValid returns StateValid without I/O when the credential has
// not expired. An expired credential with a refresh token gets exactly
// one refresh attempt; on success the access token, expiry, and a
// rotated refresh token are updated in place. Any failure, or a
// missing refresh token, marks the credential terminally expired and
// returns ErrAuthExpired.
func (m *CredentialManager) EnsureValid(ctx context.Context, cred *Credential) (State, error) {
	if cred == nil || cred.Expired {
		return StateFailed, ErrAuthExpired
	}
	if m.now().Before(cred.Expiry) {
		return StateValid, nil
	}
	if cred.RefreshToken == "" {
		cred.Expired = true
		return StateFailed, ErrAuthExpired
	}

	refreshed, err := m.refresh(ctx, cred.RefreshToken)
	if err != nil {
		fmt.Printf("Token refresh failed: %v\n", err)
		cred.Expired = true
		return StateFailed, ErrAuthExpired
	}

	cred.AccessToken = refreshed.AccessToken
	cred.Expiry = m.now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	if refreshed.RefreshToken != "" {
		cred.RefreshToken = refreshed.RefreshToken
	}

	return StateValid, nil
}

func (m *CredentialManager) refresh(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	form := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var refreshed refreshResponse
	if err := json.Unmarshal(body, &refreshed); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if refreshed.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return &refreshed, nil
}
