package crypto

import (
	"context"
	"strings"
)

// MockCodec implements Codec for local development and tests (no key
// material required). It prefixes plaintexts so mocked blobs are
// recognizable, and rejects blobs without the prefix the way a real
// codec rejects foreign ciphertext.
type MockCodec struct{}

func NewMockCodec() *MockCodec {
	return &MockCodec{}
}

func (m *MockCodec) Encrypt(_ context.Context, plaintext string) (string, error) {
	return "mock:" + plaintext, nil
}

func (m *MockCodec) Decrypt(_ context.Context, ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "mock:") {
		return "", ErrMalformedReference
	}
	return strings.TrimPrefix(ciphertext, "mock:"), nil
}
