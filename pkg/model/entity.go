// Package model holds the wire-level entities shared by digest, verify,
// statestore and client: entries, references, transaction headers, proofs,
// and the authenticated ImmuState the whole client revolves around.
package model

import "time"

// Reference records that a key was set to point at another key's value as
// of a given transaction, per spec §3.
type Reference struct {
	Tx       uint64
	Key      []byte
	AtTx     uint64
	Metadata *KVMetadata
}

// Entry is a single key/value observation returned by Get/VerifiedGet, with
// an optional back-reference when the entry was produced by SetReference.
type Entry struct {
	Tx           uint64
	Key          []byte
	Value        []byte
	Metadata     *KVMetadata
	ReferencedBy *Reference
}

// IsReference reports whether this entry was produced through a reference,
// which changes how its digest is computed (spec §4.D).
func (e *Entry) IsReference() bool {
	return e != nil && e.ReferencedBy != nil
}

// ZEntry is a single member of a sorted set, carrying the score it was
// added with plus the underlying Entry.
type ZEntry struct {
	Set   []byte
	Key   []byte
	Score float64
	AtTx  uint64
	Entry *Entry
}

// TxHeader fully defines a transaction's authenticated summary: the fields
// that feed into Alh (spec §4.D).
type TxHeader struct {
	Version   uint16
	ID        uint64
	PrevAlh   [32]byte
	Ts        int64 // microseconds
	NEntries  int32
	EH        [32]byte
	BlTxId    uint64
	BlRoot    [32]byte
}

// Time returns Ts interpreted as a wall-clock time.
func (h *TxHeader) Time() time.Time {
	return time.UnixMicro(h.Ts)
}

// TxEntry is one entry summary inside a transaction body (spec §3).
type TxEntry struct {
	Key      []byte
	Metadata *KVMetadata
	VLen     int32
	HVal     [32]byte
}

// Tx is a transaction's header plus its entry summaries.
type Tx struct {
	Header  TxHeader
	Entries []TxEntry
}

// ImmuState is the authenticated tuple the client is allowed to trust for a
// given (deployment, database): the latest transaction id and root hash it
// has verified, plus an optional server signature over that tuple.
type ImmuState struct {
	Database  string
	TxId      uint64
	TxHash    [32]byte
	Signature []byte
}

// Newer reports whether other represents a strictly later transaction than
// s. Used by the state store's monotone-write rule (spec §4.F invariant 2).
func (s *ImmuState) Newer(other *ImmuState) bool {
	if s == nil {
		return true
	}
	return other.TxId > s.TxId
}

// DeploymentInfo binds a persisted state directory to the server deployment
// that produced it (spec §3).
type DeploymentInfo struct {
	Label      string
	ServerUuid string
}

// SessionKind distinguishes read-only sessions from read-write ones.
type SessionKind int

const (
	SessionRead SessionKind = iota
	SessionReadWrite
)

// Session is the authenticated context returned by the server's login RPC.
type Session struct {
	ID         string
	ServerUuid string
	Kind       SessionKind
	TxId       *string
}
