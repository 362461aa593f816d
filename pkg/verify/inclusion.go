// Package verify implements the cryptographic proof verifiers of spec
// §4.E: inclusion, generic inclusion-in-range, last-inclusion, consistency,
// linear and dual proofs, generalized from the teacher's single
// leaf-to-root walk (pkg/merkle/tree.go's VerifyProof) into the five-shape
// algebra this protocol needs.
package verify

import (
	"crypto/subtle"

	"github.com/certen-io/verikv/pkg/codec"
	"github.com/certen-io/verikv/pkg/digest"
	"github.com/certen-io/verikv/pkg/hashing"
	"github.com/certen-io/verikv/pkg/model"
)

func hashPair(prefix byte, a, b [32]byte) [32]byte {
	buf := make([]byte, 0, 1+64)
	buf = append(buf, prefix)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return hashing.SHA256(buf)
}

func eq32(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// Inclusion verifies that digest is the leaf at proof.Leaf in a tree of
// proof.Width leaves whose root is root (spec §4.E "Inclusion").
func Inclusion(proof *model.InclusionProof, digest32 [32]byte, root [32]byte) bool {
	if proof == nil {
		return false
	}
	h := digest.LeafFor(digest32)
	i := proof.Leaf
	r := proof.Width - 1
	for _, t := range proof.Terms {
		if i%2 == 0 && i != r {
			h = hashPair(codec.NodePrefix, h, t)
		} else {
			h = hashPair(codec.NodePrefix, t, h)
		}
		i /= 2
		r /= 2
	}
	return i == r && eq32(h, root)
}

// InclusionRange is the generic inclusion-in-range check used by the
// binary log proofs inside a dual proof: it proves that the already-hashed
// leaf iLeaf sits at position i in a tree of j leaves rooted at jRoot
// (spec §4.E "Generic inclusion-in-range").
func InclusionRange(iProof [][32]byte, i, j int64, iLeaf [32]byte, jRoot [32]byte) bool {
	if i > j || i == 0 || (i < j && len(iProof) == 0) {
		return false
	}
	c := iLeaf
	i1, j1 := i-1, j-1
	for _, h := range iProof {
		if i1%2 == 0 && i1 != j1 {
			c = hashPair(codec.NodePrefix, c, h)
		} else {
			c = hashPair(codec.NodePrefix, h, c)
		}
		i1 /= 2
		j1 /= 2
	}
	return eq32(c, jRoot)
}

// LastInclusion verifies the inclusion of the rightmost leaf of a tree —
// the sibling term is always combined on the left (spec §4.E
// "Last-inclusion"). Starts from the pre-hashed leaf of d.
func LastInclusion(d [32]byte, proof *model.InclusionProof, root [32]byte) bool {
	if proof == nil {
		return false
	}
	c := digest.LeafFor(d)
	for _, t := range proof.Terms {
		c = hashPair(codec.NodePrefix, t, c)
	}
	return eq32(c, root)
}

// LeafFor re-exports digest.LeafFor for callers that only import verify.
func LeafFor(d [32]byte) [32]byte {
	return digest.LeafFor(d)
}
