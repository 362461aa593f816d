package client

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// parseSigningKey decodes the configured hex-encoded server signing public
// key (spec §6 serverSigningKey).
func parseSigningKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("expected %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
