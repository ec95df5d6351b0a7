package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jun/dreamlog/backend/internal/crypto"
	"github.com/jun/dreamlog/backend/internal/store"
)

// ReferenceHandler manages the user's stored spreadsheet reference
// directly, bypassing the resolver. Setting a reference performs no
// existence check; the next submission validates it.
type ReferenceHandler struct {
	accounts  store.ReferenceStore
	codec     crypto.Codec
	jwtSecret string
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(accounts store.ReferenceStore, codec crypto.Codec, jwtSecret string) *ReferenceHandler {
	return &ReferenceHandler{accounts: accounts, codec: codec, jwtSecret: jwtSecret}
}

// GetReference returns the user's decrypted spreadsheet reference, or
// null when absent or undecryptable.
func (h *ReferenceHandler) GetReference(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	session, err := GetSession(req, h.jwtSecret)
	if err != nil {
		return unauthorized(), nil
	}

	account, err := h.accounts.Get(ctx, session.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return jsonResponse(http.StatusOK, map[string]interface{}{"referenceId": nil}), nil
		}
		fmt.Printf("Account lookup error for %s: %v\n", session.Email, err)
		return errorResponse(http.StatusInternalServerError, "Failed to fetch reference"), nil
	}

	if account.EncryptedSpreadsheetID == nil {
		return jsonResponse(http.StatusOK, map[string]interface{}{"referenceId": nil}), nil
	}

	plaintext, err := h.codec.Decrypt(ctx, *account.EncryptedSpreadsheetID)
	if err != nil {
		// Unusable blob reads as no reference.
		return jsonResponse(http.StatusOK, map[string]interface{}{"referenceId": nil}), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{"referenceId": plaintext}), nil
}

// SetReference stores or clears the user's spreadsheet reference.
// A null referenceId clears it; a non-null one is encrypted and
// stored as-is.
func (h *ReferenceHandler) SetReference(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	session, err := GetSession(req, h.jwtSecret)
	if err != nil {
		return unauthorized(), nil
	}

	var payload struct {
		ReferenceID *string `json:"referenceId"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	if payload.ReferenceID == nil || *payload.ReferenceID == "" {
		if err := h.accounts.Upsert(ctx, session.Email, nil); err != nil {
			fmt.Printf("Clear reference error for %s: %v\n", session.Email, err)
			return errorResponse(http.StatusInternalServerError, "Failed to save reference"), nil
		}
		return jsonResponse(http.StatusOK, map[string]interface{}{
			"success":     true,
			"referenceId": nil,
		}), nil
	}

	encrypted, err := h.codec.Encrypt(ctx, *payload.ReferenceID)
	if err != nil {
		fmt.Printf("Encrypt reference error for %s: %v\n", session.Email, err)
		return errorResponse(http.StatusInternalServerError, "Failed to save reference"), nil
	}

	if err := h.accounts.Upsert(ctx, session.Email, &encrypted); err != nil {
		fmt.Printf("Save reference error for %s: %v\n", session.Email, err)
		return errorResponse(http.StatusInternalServerError, "Failed to save reference"), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success":     true,
		"referenceId": *payload.ReferenceID,
	}), nil
}
