package verify

import (
	"testing"

	"github.com/certen-io/verikv/pkg/hashing"
)

func TestConsistencySameSnapshotRequiresEmptyTerms(t *testing.T) {
	root := hashing.SHA256([]byte("root"))
	if !Consistency(5, 5, nil, root, root) {
		t.Fatalf("expected i == j with no terms and equal roots to verify")
	}
	if Consistency(5, 5, [][32]byte{{}}, root, root) {
		t.Fatalf("expected i == j with stray terms to be rejected")
	}
}

func TestConsistencyRejectsIGreaterThanJ(t *testing.T) {
	root := hashing.SHA256([]byte("root"))
	if Consistency(6, 5, [][32]byte{{}}, root, root) {
		t.Fatalf("expected rejection: i > j")
	}
}

func TestConsistencyRejectsZeroI(t *testing.T) {
	root := hashing.SHA256([]byte("root"))
	if Consistency(0, 5, [][32]byte{{}}, root, root) {
		t.Fatalf("expected rejection: i == 0")
	}
}

func TestConsistencyRejectsEmptyTermsWhenGrown(t *testing.T) {
	root := hashing.SHA256([]byte("root"))
	if Consistency(3, 5, nil, root, root) {
		t.Fatalf("expected rejection: i < j with no terms")
	}
}

func TestConsistencySingleTermChain(t *testing.T) {
	// i == 1 collapses to fn == 0, so the walk never folds any extra term
	// into ciRoot/cjRoot beyond terms[0] itself: both roots must equal it.
	shared := hashing.SHA256([]byte("shared"))
	if !Consistency(1, 2, [][32]byte{shared}, shared, shared) {
		t.Fatalf("expected single-term consistency proof to verify when both roots equal terms[0]")
	}
}

func TestConsistencyRejectsFlippedRoot(t *testing.T) {
	shared := hashing.SHA256([]byte("shared"))
	corrupted := shared
	corrupted[0] ^= 0x01
	if Consistency(1, 2, [][32]byte{shared}, corrupted, shared) {
		t.Fatalf("expected rejection when iRoot does not match the computed root")
	}
}
