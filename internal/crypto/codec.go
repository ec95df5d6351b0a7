// Package crypto encrypts the user's spreadsheet id for at-rest storage.
package crypto

import (
	"context"
	"errors"
)

var (
	// ErrMalformedReference is returned when a ciphertext blob does not
	// parse as nonce:tag:ciphertext.
	ErrMalformedReference = errors.New("malformed encrypted reference")

	// ErrAuthenticationFailure is returned when the integrity tag does
	// not verify (tampered data or wrong key).
	ErrAuthenticationFailure = errors.New("reference authentication failed")
)

// Codec defines the interface for encrypting and decrypting the
// spreadsheet reference. Both failure kinds from Decrypt mean the same
// thing to callers: the stored reference is unusable.
type Codec interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}
