package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jun/dreamlog/backend/internal/auth"
	"github.com/jun/dreamlog/backend/internal/journal"
)

// DreamHandler handles dream submissions.
type DreamHandler struct {
	pipeline  *journal.Pipeline
	jwtSecret string
}

// NewDreamHandler creates a new DreamHandler.
func NewDreamHandler(pipeline *journal.Pipeline, jwtSecret string) *DreamHandler {
	return &DreamHandler{pipeline: pipeline, jwtSecret: jwtSecret}
}

// SubmitDream appends one dream entry to the user's spreadsheet,
// provisioning it first if needed.
func (h *DreamHandler) SubmitDream(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	session, err := GetSession(req, h.jwtSecret)
	if err != nil {
		return unauthorized(), nil
	}

	var payload struct {
		Dream string `json:"dream"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Dream text is required"), nil
	}

	tokenBefore := session.Credential.AccessToken
	result, err := h.pipeline.Submit(ctx, session.Email, &session.Credential, payload.Dream, session.Name)
	if err != nil {
		switch {
		case errors.Is(err, journal.ErrValidation):
			return errorResponse(http.StatusBadRequest, err.Error()), nil
		case errors.Is(err, auth.ErrAuthExpired):
			return errorResponse(http.StatusUnauthorized, "Authentication expired, please sign in again"), nil
		default:
			fmt.Printf("Submit error for %s: %v\n", session.Email, err)
			return jsonResponse(http.StatusInternalServerError, map[string]string{
				"error":   "Failed to add dream",
				"details": err.Error(),
			}), nil
		}
	}

	resp := jsonResponse(http.StatusOK, map[string]interface{}{
		"success":  true,
		"ledgerId": result.SpreadsheetID,
		"created":  result.Created,
	})

	// The pipeline may have refreshed the credential; re-issue the
	// session cookie so the next request carries the new tokens.
	if session.Credential.AccessToken != tokenBefore {
		if signed, err := IssueSessionToken(session, h.jwtSecret); err == nil {
			resp.Headers["Set-Cookie"] = SessionCookie(signed)
		}
	}

	return resp, nil
}
