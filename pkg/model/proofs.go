package model

// InclusionProof is the Merkle path proving a single leaf's membership in a
// transaction's entry tree (spec §3, §4.E).
type InclusionProof struct {
	Leaf  int32
	Width int32
	Terms [][32]byte
}

// LinearProof is the chain of Alh preimages linking sourceTxId to
// targetTxId inclusive (spec §4.E).
type LinearProof struct {
	SourceTxId uint64
	TargetTxId uint64
	Terms      [][32]byte
}

// DualProof is the composite proof linking two transactions: the headers
// themselves plus the four sub-proofs spec §4.E's dual-proof algorithm
// checks in sequence. InclusionProof here is the binary-log
// inclusion-in-range proof (step 4), distinct from the entry-in-transaction
// InclusionProof a client checks separately against TargetTxHeader.EH; they
// share this Go type because both are Merkle paths of [32]byte terms, but
// are verified against different roots.
type DualProof struct {
	SourceTxHeader     *TxHeader
	TargetTxHeader     *TxHeader
	InclusionProof     *InclusionProof
	ConsistencyProof   *ConsistencyProof
	TargetBlTxAlh      [32]byte
	LastInclusionProof *InclusionProof
	LinearProof        *LinearProof
}

// ConsistencyProof links an older binary-log snapshot to a newer one (spec
// §4.E "Consistency").
type ConsistencyProof struct {
	Terms [][32]byte
}
