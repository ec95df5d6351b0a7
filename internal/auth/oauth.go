package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// OAuthService handles the Google OAuth2 login flow. The resulting
// credential travels in the session cookie only; nothing here touches
// persistent storage.
type OAuthService struct {
	oauthConfig *oauth2.Config
}

// NewOAuthService creates a new OAuthService.
// The oauthConfig should be constructed by the caller (e.g., from environment variables).
func NewOAuthService(oauthConfig *oauth2.Config) *OAuthService {
	return &OAuthService{oauthConfig: oauthConfig}
}

// Config returns the OAuth2 config.
func (s *OAuthService) Config() *oauth2.Config {
	return s.oauthConfig
}

// GenerateAuthURL returns the URL to redirect the user to for Google
// login. Offline access with forced consent so a refresh token is
// issued on every grant.
func (s *OAuthService) GenerateAuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode exchanges the authorization code for an access token.
func (s *OAuthService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.oauthConfig.Exchange(ctx, code)
}

// UserInfo fetches the authenticated user's profile. The verified
// email is the identity key for the account row.
func (s *OAuthService) UserInfo(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(s.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	userinfo, err := svc.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	return userinfo, nil
}

// CredentialFromToken maps an exchanged OAuth2 token onto the session
// credential.
func CredentialFromToken(token *oauth2.Token) Credential {
	return Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
}
