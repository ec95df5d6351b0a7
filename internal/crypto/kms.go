package crypto

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSClient is the subset of *kms.Client methods used by KMSCodec.
type KMSClient interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSCodec implements Codec using AWS KMS, for deployments that prefer
// a managed key over a local one.
type KMSCodec struct {
	client KMSClient
	keyID  string
}

// NewKMSCodec creates a new KMSCodec.
// keyID can be a key ID, key ARN, or alias name (e.g., "alias/dreamlog-reference-key").
func NewKMSCodec(client KMSClient, keyID string) *KMSCodec {
	return &KMSCodec{
		client: client,
		keyID:  keyID,
	}
}

// Encrypt encrypts the spreadsheet id using the configured KMS key.
// Returns base64 encoded ciphertext.
func (c *KMSCodec) Encrypt(ctx context.Context, plaintext string) (string, error) {
	input := &kms.EncryptInput{
		KeyId:     aws.String(c.keyID),
		Plaintext: []byte(plaintext),
	}

	result, err := c.client.Encrypt(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt reference: %w", err)
	}

	return base64.StdEncoding.EncodeToString(result.CiphertextBlob), nil
}

// Decrypt decrypts the base64 encoded ciphertext using KMS. Decode
// failures map to ErrMalformedReference and KMS rejections to
// ErrAuthenticationFailure so callers see the same taxonomy as the
// local codec.
func (c *KMSCodec) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformedReference
	}

	input := &kms.DecryptInput{
		CiphertextBlob: decoded,
		KeyId:          aws.String(c.keyID),
	}

	result, err := c.client.Decrypt(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailure, err)
	}

	return string(result.Plaintext), nil
}
