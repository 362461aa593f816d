// Package hashing provides the single SHA-256 primitive every other
// verification layer is built on top of.
package hashing

import "crypto/sha256"

// Size is the length in bytes of a digest produced by SHA256.
const Size = sha256.Size

// emptyDigest is the canonical SHA-256 of the empty byte string. Spec
// invariant 1 requires every empty/null input to reuse this constant rather
// than rehash, so it is computed once at init and returned directly.
var emptyDigest = sha256.Sum256(nil)

// SHA256 returns the 32-byte SHA-256 digest of input. An empty input always
// returns the same canonical digest (base64 47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=).
func SHA256(input []byte) [Size]byte {
	if len(input) == 0 {
		return emptyDigest
	}
	return sha256.Sum256(input)
}

// SHA256Slice is SHA256 with a []byte result, convenient at call sites that
// immediately concatenate or index into the digest.
func SHA256Slice(input []byte) []byte {
	d := SHA256(input)
	return d[:]
}
