package verify

import (
	"testing"

	"github.com/certen-io/verikv/pkg/digest"
	"github.com/certen-io/verikv/pkg/model"
)

func TestDualProofSameTransactionSucceeds(t *testing.T) {
	header := &model.TxHeader{Version: 1, ID: 5, Ts: 100, NEntries: 1}
	alh, err := digest.Alh(header)
	if err != nil {
		t.Fatalf("alh: %v", err)
	}

	proof := &model.DualProof{
		SourceTxHeader: header,
		TargetTxHeader: header,
		LinearProof:    &model.LinearProof{SourceTxId: 5, TargetTxId: 5, Terms: [][32]byte{alh}},
	}

	state, err := DualProof(nil, 5, proof, "defaultdb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TxId != 5 || state.TxHash != alh {
		t.Fatalf("unexpected resulting state: %+v", state)
	}
}

func TestDualProofRejectsMissingHeaders(t *testing.T) {
	if _, err := DualProof(nil, 5, &model.DualProof{}, "defaultdb"); err == nil {
		t.Fatalf("expected error for missing headers")
	}
	if _, err := DualProof(nil, 5, nil, "defaultdb"); err == nil {
		t.Fatalf("expected error for nil proof")
	}
}

func TestDualProofRejectsMismatchedSourceState(t *testing.T) {
	header := &model.TxHeader{Version: 1, ID: 5, Ts: 100, NEntries: 1}
	alh, _ := digest.Alh(header)

	source := &model.ImmuState{Database: "defaultdb", TxId: 5, TxHash: alh}
	source.TxHash[0] ^= 0x01 // corrupt the remembered hash

	proof := &model.DualProof{
		SourceTxHeader: header,
		TargetTxHeader: header,
		LinearProof:    &model.LinearProof{SourceTxId: 5, TargetTxId: 5, Terms: [][32]byte{alh}},
	}

	if _, err := DualProof(source, 5, proof, "defaultdb"); err == nil {
		t.Fatalf("expected error for source state/header mismatch")
	}
}

func TestDualProofRejectsSourceStateIdMismatch(t *testing.T) {
	header := &model.TxHeader{Version: 1, ID: 5, Ts: 100, NEntries: 1}
	alh, _ := digest.Alh(header)

	// A local state that claims to be at a different transaction than the
	// one the proof's source header actually describes.
	source := &model.ImmuState{Database: "defaultdb", TxId: 4, TxHash: alh}

	proof := &model.DualProof{
		SourceTxHeader: header,
		TargetTxHeader: header,
		LinearProof:    &model.LinearProof{SourceTxId: 5, TargetTxId: 5, Terms: [][32]byte{alh}},
	}

	if _, err := DualProof(source, 5, proof, "defaultdb"); err == nil {
		t.Fatalf("expected error when local state's txId disagrees with the source header's id")
	}
}

func TestDualProofRejectsTargetIdMismatch(t *testing.T) {
	header := &model.TxHeader{Version: 1, ID: 5, Ts: 100, NEntries: 1}
	alh, _ := digest.Alh(header)

	proof := &model.DualProof{
		SourceTxHeader: header,
		TargetTxHeader: header,
		LinearProof:    &model.LinearProof{SourceTxId: 5, TargetTxId: 5, Terms: [][32]byte{alh}},
	}

	// Caller expects tx 6 but the proof's target header is actually tx 5.
	if _, err := DualProof(nil, 6, proof, "defaultdb"); err == nil {
		t.Fatalf("expected error when the caller's expected target txId disagrees with the target header")
	}
}

func TestDualProofRejectsCorruptedLinearTerm(t *testing.T) {
	header := &model.TxHeader{Version: 1, ID: 5, Ts: 100, NEntries: 1}
	alh, _ := digest.Alh(header)
	corrupted := alh
	corrupted[0] ^= 0x01

	proof := &model.DualProof{
		SourceTxHeader: header,
		TargetTxHeader: header,
		LinearProof:    &model.LinearProof{SourceTxId: 5, TargetTxId: 5, Terms: [][32]byte{corrupted}},
	}

	if _, err := DualProof(nil, 5, proof, "defaultdb"); err == nil {
		t.Fatalf("expected error for corrupted linear proof term")
	}
}

func TestDualProofRejectsDivergingSharedBlRoot(t *testing.T) {
	source := &model.TxHeader{Version: 1, ID: 5, Ts: 100, NEntries: 1, BlTxId: 3}
	target := &model.TxHeader{Version: 1, ID: 6, PrevAlh: mustAlh(t, source), Ts: 101, NEntries: 1, BlTxId: 3}
	target.BlRoot[0] = 0xFF // same BlTxId but diverging root: must be rejected

	// An empty consistency proof is supplied, so the consistency gate
	// compares the two roots itself instead of failing on a missing proof.
	proof := &model.DualProof{SourceTxHeader: source, TargetTxHeader: target, ConsistencyProof: &model.ConsistencyProof{}}
	if _, err := DualProof(nil, 6, proof, "defaultdb"); err == nil {
		t.Fatalf("expected error for diverging binary-log roots at the same bltxid")
	}
}

func mustAlh(t *testing.T, h *model.TxHeader) [32]byte {
	t.Helper()
	alh, err := digest.Alh(h)
	if err != nil {
		t.Fatalf("alh: %v", err)
	}
	return alh
}
