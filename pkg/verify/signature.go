package verify

import (
	"crypto/ed25519"
	"fmt"

	"github.com/certen-io/verikv/pkg/codec"
	"github.com/certen-io/verikv/pkg/model"
)

// Signature verifies the server's Ed25519 signature over the canonical
// encoding of a newly-verified ImmuState (spec §4.E "Signature check",
// spec §6 serverSigningKey). The signed message is
// u64_be(state.TxId) || state.TxHash || []byte(state.Database), matching
// the teacher's domain-separated sign-then-hash pattern in
// pkg/attestation/strategy/ed25519_strategy.go generalized to this
// protocol's state shape.
func Signature(publicKey ed25519.PublicKey, state *model.ImmuState) (bool, error) {
	if state == nil {
		return false, fmt.Errorf("verify: nil state")
	}
	if len(state.Signature) == 0 {
		return false, nil
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("verify: invalid public key size %d", len(publicKey))
	}

	buf := make([]byte, 0, 8+32+len(state.Database))
	buf = codec.AppendUint64(buf, state.TxId)
	buf = append(buf, state.TxHash[:]...)
	buf = append(buf, []byte(state.Database)...)

	return ed25519.Verify(publicKey, buf, state.Signature), nil
}
