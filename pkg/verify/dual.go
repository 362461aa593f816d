package verify

import (
	"fmt"

	"github.com/certen-io/verikv/pkg/digest"
	"github.com/certen-io/verikv/pkg/model"
)

// DualProof verifies the composite proof linking sourceState to
// targetTxId via proof, per spec §4.E's 8-step dual-proof algorithm:
//
//  1. reject if either header is missing or its id disagrees with the
//     supplied sourceTxId (sourceState.TxId) / targetTxId;
//  2. reject if sourceTxId == 0 or sourceTxId > targetTxId;
//  3. reject if Alh(sourceHeader) != sourceAlh (sourceState.TxHash) or
//     Alh(targetHeader) != targetAlh;
//  4. if sourceTxId < targetHeader.BlTxId: generic inclusion of
//     leafFor(sourceAlh) at position sourceTxId inside a tree of width
//     targetHeader.BlTxId rooted at targetHeader.BlRoot MUST hold;
//  5. if sourceHeader.BlTxId > 0: consistency between
//     (sourceHeader.BlTxId, sourceHeader.BlRoot) and
//     (targetHeader.BlTxId, targetHeader.BlRoot) MUST hold;
//  6. if targetHeader.BlTxId > 0: last-inclusion of
//     leafFor(targetBlTxAlh) at position targetHeader.BlTxId rooted at
//     targetHeader.BlRoot MUST hold;
//  7. linear endpoints are (targetHeader.BlTxId, targetBlTxAlh,
//     targetTxId, targetAlh) if sourceTxId < targetHeader.BlTxId, else
//     (sourceTxId, sourceAlh, targetTxId, targetAlh); verify the linear
//     proof between them;
//  8. on success, build the new ImmuState{database, targetTxId, targetAlh}.
//
// Each of steps 4-6 is an independent gate: a server that simply omits
// the corresponding sub-proof fails the check, it does not skip it.
func DualProof(sourceState *model.ImmuState, targetTxId uint64, proof *model.DualProof, dbName string) (*model.ImmuState, error) {
	if proof == nil || proof.SourceTxHeader == nil || proof.TargetTxHeader == nil {
		return nil, fmt.Errorf("verify: dual proof missing headers")
	}

	sourceHeader := proof.SourceTxHeader
	targetHeader := proof.TargetTxHeader

	if sourceState != nil && sourceState.TxId != sourceHeader.ID {
		return nil, fmt.Errorf("verify: source state does not match source header")
	}
	if targetHeader.ID != targetTxId {
		return nil, fmt.Errorf("verify: target header does not match expected target transaction")
	}

	sourceTxId := sourceHeader.ID
	if sourceTxId == 0 || sourceTxId > targetHeader.ID {
		return nil, fmt.Errorf("verify: source transaction must be non-zero and not after target")
	}

	sourceAlh, err := digest.Alh(sourceHeader)
	if err != nil {
		return nil, fmt.Errorf("verify: source header alh: %w", err)
	}
	if sourceState != nil && sourceState.TxHash != sourceAlh {
		return nil, fmt.Errorf("verify: source state does not match source header")
	}

	targetAlh, err := digest.Alh(targetHeader)
	if err != nil {
		return nil, fmt.Errorf("verify: target header alh: %w", err)
	}

	if sourceTxId < targetHeader.BlTxId {
		leaf := digest.LeafFor(sourceAlh)
		if proof.InclusionProof == nil || !InclusionRange(proof.InclusionProof.Terms, int64(sourceTxId), int64(targetHeader.BlTxId), leaf, targetHeader.BlRoot) {
			return nil, fmt.Errorf("verify: inclusion-range check failed")
		}
	}

	if sourceHeader.BlTxId > 0 {
		if proof.ConsistencyProof == nil || !Consistency(sourceHeader.BlTxId, targetHeader.BlTxId, proof.ConsistencyProof.Terms, sourceHeader.BlRoot, targetHeader.BlRoot) {
			return nil, fmt.Errorf("verify: consistency check failed")
		}
	}

	if targetHeader.BlTxId > 0 {
		if !LastInclusion(proof.TargetBlTxAlh, proof.LastInclusionProof, targetHeader.BlRoot) {
			return nil, fmt.Errorf("verify: last-inclusion check failed")
		}
	}

	linearSourceTxId, linearSourceAlh := sourceTxId, sourceAlh
	if sourceTxId < targetHeader.BlTxId {
		linearSourceTxId, linearSourceAlh = targetHeader.BlTxId, proof.TargetBlTxAlh
	}
	if proof.LinearProof == nil || !Linear(linearSourceTxId, targetHeader.ID, proof.LinearProof.Terms, linearSourceAlh, targetAlh) {
		return nil, fmt.Errorf("verify: linear proof check failed")
	}

	return &model.ImmuState{
		Database: dbName,
		TxId:     targetHeader.ID,
		TxHash:   targetAlh,
	}, nil
}
