package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/jun/dreamlog/backend/internal/auth"
)

// AuthHandler handles the Google login flow and session lifecycle.
type AuthHandler struct {
	oauthService *auth.OAuthService
	jwtSecret    string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *auth.OAuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{oauthService: s, jwtSecret: jwtSecret}
}

// Login initiates the Google OAuth2 flow.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	state := uuid.New().String()
	url := h.oauthService.GenerateAuthURL(state)

	stateCookie := fmt.Sprintf("oauth_state=%s; HttpOnly; Path=/; Max-Age=600; SameSite=Lax; Secure", state)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": url,
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {stateCookie},
		},
	}, nil
}

// Callback handles the OAuth2 callback from Google. The exchanged
// credential is placed into the session cookie; nothing about it is
// persisted server-side.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	code := req.QueryStringParameters["code"]
	if code == "" {
		return errorResponse(http.StatusBadRequest, "Missing code"), nil
	}

	token, err := h.oauthService.ExchangeCode(ctx, code)
	if err != nil {
		fmt.Printf("ExchangeCode error: %v\n", err)
		return errorResponse(http.StatusInternalServerError, "Failed to exchange code"), nil
	}

	userinfo, err := h.oauthService.UserInfo(ctx, token)
	if err != nil {
		fmt.Printf("Userinfo error: %v\n", err)
		return errorResponse(http.StatusInternalServerError, "Failed to get user info"), nil
	}
	if userinfo.Email == "" {
		return errorResponse(http.StatusInternalServerError, "Provider returned no email"), nil
	}

	session := &Session{
		Email:      userinfo.Email,
		Name:       userinfo.Name,
		Credential: auth.CredentialFromToken(token),
	}

	signedToken, err := IssueSessionToken(session, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "Failed to sign token"), nil
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": frontendURL + "/dashboard",
		},
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {SessionCookie(signedToken)},
		},
	}, nil
}

// GetUser returns the session identity.
func (h *AuthHandler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	session, err := GetSession(req, h.jwtSecret)
	if err != nil {
		return unauthorized(), nil
	}

	return jsonResponse(http.StatusOK, map[string]string{
		"email": session.Email,
		"name":  session.Name,
	}), nil
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success":true}`,
		MultiValueHeaders: map[string][]string{
			"Set-Cookie": {ClearSessionCookie()},
		},
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}
