package verify

import (
	"github.com/certen-io/verikv/pkg/codec"
	"github.com/certen-io/verikv/pkg/hashing"
)

// Linear verifies the chain of Alh preimages linking sourceTxId to
// targetTxId inclusive (spec §4.E "Linear"): terms[0] must equal
// sourceAlh, there must be exactly targetTxId-sourceTxId+1 terms, and each
// subsequent term folds in as
// calc = sha256(u64_be(sourceTxId+k) || calc || terms[k]).
func Linear(sourceTxId, targetTxId uint64, terms [][32]byte, sourceAlh, targetAlh [32]byte) bool {
	if sourceTxId > targetTxId || len(terms) == 0 {
		return false
	}
	if uint64(len(terms)) != targetTxId-sourceTxId+1 {
		return false
	}
	if !eq32(terms[0], sourceAlh) {
		return false
	}

	calc := terms[0]
	for k := 1; k < len(terms); k++ {
		buf := make([]byte, 0, 8+32+32)
		buf = codec.AppendUint64(buf, sourceTxId+uint64(k))
		buf = append(buf, calc[:]...)
		buf = append(buf, terms[k][:]...)
		calc = hashing.SHA256(buf)
	}

	return eq32(calc, targetAlh)
}
