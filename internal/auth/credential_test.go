package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func expiredCredential() *Credential {
	return &Credential{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-123",
		Expiry:       time.Now().Add(-1 * time.Hour),
	}
}

func TestEnsureValid_NotExpired_NoIO(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	m := NewCredentialManagerForEndpoint("cid", "secret", server.URL)
	cred := &Credential{
		AccessToken: "fresh-access",
		Expiry:      time.Now().Add(30 * time.Minute),
	}

	state, err := m.EnsureValid(context.Background(), cred)
	if err != nil {
		t.Fatalf("EnsureValid failed: %v", err)
	}
	if state != StateValid {
		t.Errorf("Expected StateValid, got %v", state)
	}
	if calls != 0 {
		t.Errorf("Expected no token endpoint calls, got %d", calls)
	}
	if cred.AccessToken != "fresh-access" {
		t.Errorf("Credential was mutated: %q", cred.AccessToken)
	}
}

func TestEnsureValid_RefreshSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "refresh_token" {
			t.Errorf("Expected grant_type refresh_token, got %q", got)
		}
		if got := r.PostFormValue("refresh_token"); got != "refresh-123" {
			t.Errorf("Expected refresh token 'refresh-123', got %q", got)
		}
		if got := r.PostFormValue("client_id"); got != "cid" {
			t.Errorf("Expected client_id 'cid', got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","expires_in":3600}`))
	}))
	defer server.Close()

	m := NewCredentialManagerForEndpoint("cid", "secret", server.URL)
	cred := expiredCredential()

	state, err := m.EnsureValid(context.Background(), cred)
	if err != nil {
		t.Fatalf("EnsureValid failed: %v", err)
	}
	if state != StateValid {
		t.Errorf("Expected StateValid, got %v", state)
	}
	if cred.AccessToken != "new-access" {
		t.Errorf("Expected refreshed access token, got %q", cred.AccessToken)
	}
	if !cred.Expiry.After(time.Now()) {
		t.Error("Expected expiry in the future after refresh")
	}
	// Provider did not rotate the refresh token.
	if cred.RefreshToken != "refresh-123" {
		t.Errorf("Refresh token should be unchanged, got %q", cred.RefreshToken)
	}
}

func TestEnsureValid_RefreshRotatesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","expires_in":3600,"refresh_token":"rotated-456"}`))
	}))
	defer server.Close()

	m := NewCredentialManagerForEndpoint("cid", "secret", server.URL)
	cred := expiredCredential()

	if _, err := m.EnsureValid(context.Background(), cred); err != nil {
		t.Fatalf("EnsureValid failed: %v", err)
	}
	if cred.RefreshToken != "rotated-456" {
		t.Errorf("Expected rotated refresh token, got %q", cred.RefreshToken)
	}
}

func TestEnsureValid_RefreshRejected(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	m := NewCredentialManagerForEndpoint("cid", "secret", server.URL)
	cred := expiredCredential()

	state, err := m.EnsureValid(context.Background(), cred)
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Expected ErrAuthExpired, got %v", err)
	}
	if state != StateFailed {
		t.Errorf("Expected StateFailed, got %v", state)
	}
	if !cred.Expired {
		t.Error("Expected credential marked terminally expired")
	}
	if calls != 1 {
		t.Errorf("Expected exactly one refresh attempt, got %d", calls)
	}

	// Failed is terminal: a second EnsureValid must not retry.
	if _, err := m.EnsureValid(context.Background(), cred); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Expected ErrAuthExpired on terminal credential, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no further refresh attempts, got %d", calls)
	}
}

func TestEnsureValid_NoRefreshToken(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	m := NewCredentialManagerForEndpoint("cid", "secret", server.URL)
	cred := &Credential{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-1 * time.Minute),
	}

	state, err := m.EnsureValid(context.Background(), cred)
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Expected ErrAuthExpired, got %v", err)
	}
	if state != StateFailed {
		t.Errorf("Expected StateFailed, got %v", state)
	}
	if calls != 0 {
		t.Errorf("Expected no token endpoint calls, got %d", calls)
	}
}

func TestEnsureValid_NilCredential(t *testing.T) {
	m := NewCredentialManager("cid", "secret")
	if _, err := m.EnsureValid(context.Background(), nil); !errors.Is(err, ErrAuthExpired) {
		t.Errorf("Expected ErrAuthExpired for nil credential, got %v", err)
	}
}
