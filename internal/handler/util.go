package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jun/dreamlog/backend/internal/auth"
)

// SessionTTL is how long a session cookie stays valid.
const SessionTTL = 14 * 24 * time.Hour

// Session is the authenticated state carried in the session JWT. The
// OAuth credential travels here and only here; it is never persisted
// server-side.
type Session struct {
	Email      string
	Name       string
	Credential auth.Credential
}

// GetSession extracts and verifies the session from the Authorization
// header or session cookie.
func GetSession(req events.APIGatewayProxyRequest, jwtSecret string) (*Session, error) {
	// Helper for case-insensitive header lookup
	getHeader := func(name string) string {
		for k, v := range req.Headers {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	}

	// 1. Check Authorization Header (Bearer <token>)
	tokenString := ""
	authHeader := getHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}

	// 2. Check Cookie
	if tokenString == "" {
		// Cookie format: session_token=xxx; ...
		cookies := getHeader("Cookie")
		if cookies != "" {
			parts := strings.Split(cookies, ";")
			for _, part := range parts {
				part = strings.TrimSpace(part)
				if strings.HasPrefix(part, "session_token=") {
					tokenString = strings.TrimPrefix(part, "session_token=")
					break
				}
			}
		}
	}

	if tokenString == "" {
		return nil, fmt.Errorf("no authorization token found")
	}

	// Verify JWT
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	email, _ := claims["sub"].(string)
	if email == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	session := &Session{Email: email}
	session.Name, _ = claims["name"].(string)
	session.Credential.AccessToken, _ = claims["access_token"].(string)
	session.Credential.RefreshToken, _ = claims["refresh_token"].(string)
	if exp, ok := claims["token_expiry"].(float64); ok {
		session.Credential.Expiry = time.Unix(int64(exp), 0)
	}

	return session, nil
}

// IssueSessionToken signs a session JWT carrying the identity and the
// OAuth credential.
func IssueSessionToken(s *Session, jwtSecret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":           s.Email,
		"name":          s.Name,
		"access_token":  s.Credential.AccessToken,
		"refresh_token": s.Credential.RefreshToken,
		"token_expiry":  s.Credential.Expiry.Unix(),
		"exp":           time.Now().Add(SessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// SessionCookie renders the Set-Cookie value for a signed session
// token.
func SessionCookie(signedToken string) string {
	sameSite := "Lax"
	if os.Getenv("DEV_MODE") != "true" {
		sameSite = "None"
	}
	return fmt.Sprintf("session_token=%s; HttpOnly; Path=/; Max-Age=%d; SameSite=%s; Secure",
		signedToken, int(SessionTTL.Seconds()), sameSite)
}

// ClearSessionCookie renders a Set-Cookie value that expires the
// session.
func ClearSessionCookie() string {
	return "session_token=; HttpOnly; Path=/; Max-Age=0; SameSite=Lax; Secure"
}

// jsonResponse marshals v into an API Gateway response.
func jsonResponse(status int, v interface{}) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(v)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// errorResponse renders {"error": ...} with the given status.
func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]string{"error": message})
}

// unauthorized is the canonical 401 body.
func unauthorized() events.APIGatewayProxyResponse {
	return errorResponse(http.StatusUnauthorized, "Unauthorized")
}
