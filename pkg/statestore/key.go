package statestore

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const deploymentKeyLen = 30

// deploymentKey implements the spec §4.F derivation: sha256(address) ->
// base64 -> uppercase -> '+'->'-', '/'->'_' -> drop '=' -> truncate to 30.
func deploymentKey(address string) string {
	sum := sha256.Sum256([]byte(address))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	encoded = strings.ToUpper(encoded)
	encoded = strings.NewReplacer("+", "-", "/", "_", "=", "").Replace(encoded)
	if len(encoded) > deploymentKeyLen {
		encoded = encoded[:deploymentKeyLen]
	}
	return encoded
}
