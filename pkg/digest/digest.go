// Package digest implements the canonical entry and transaction-header
// digests (spec §4.D), generalized from the teacher's single
// receiptHashPair helper into the full two-version entry/header digest
// algebra this protocol needs.
package digest

import (
	"errors"
	"fmt"

	"github.com/certen-io/verikv/pkg/codec"
	"github.com/certen-io/verikv/pkg/hashing"
	"github.com/certen-io/verikv/pkg/model"
)

// ErrMetadataNotAllowed is returned by KVDigestV0 when metadata is present;
// version 0 never carries metadata and its presence signals a config error
// (spec §4.D).
var ErrMetadataNotAllowed = errors.New("digest: metadata not allowed in version 0")

// EncodedKey returns SET_KEY_PREFIX||key for a plain entry, or
// SET_KEY_PREFIX||reference.Key when e was produced via a reference (spec
// §4.D "Entry encoded key").
func EncodedKey(e *model.Entry) []byte {
	if e.IsReference() {
		return codec.WrapWithPrefix(e.ReferencedBy.Key, codec.SetKeyPrefix)
	}
	return codec.WrapWithPrefix(e.Key, codec.SetKeyPrefix)
}

// EncodedValue returns PLAIN_VALUE_PREFIX||value for a plain entry, or the
// wrapped reference value for a referenced one (spec §4.D "Entry encoded
// value"). This is the canonical algorithm; spec §9 notes the source has an
// off-by-one bug here (feeding the digest result back into the wrapper)
// that this implementation deliberately does not reproduce.
func EncodedValue(e *model.Entry) []byte {
	if e.IsReference() {
		return codec.WrapReferenceValueAt(e.Key, e.ReferencedBy.AtTx)
	}
	return codec.WrapWithPrefix(e.Value, codec.PlainValuePrefix)
}

// KVDigestV0 computes sha256(encodedKey || sha256(encodedValue)) for
// protocol header version 0. e.Metadata must be nil.
func KVDigestV0(e *model.Entry) ([32]byte, error) {
	if e.Metadata != nil {
		return [32]byte{}, ErrMetadataNotAllowed
	}
	valueHash := hashing.SHA256(EncodedValue(e))
	buf := append(append([]byte{}, EncodedKey(e)...), valueHash[:]...)
	return hashing.SHA256(buf), nil
}

// KVDigestV1 computes the version-1 KV digest:
//
//	u16_be(mdLen) || serialize(metadata) || u16_be(len(encodedKey)) || encodedKey || sha256(encodedValue)
func KVDigestV1(e *model.Entry) [32]byte {
	mdBytes := e.Metadata.Serialize()
	encKey := EncodedKey(e)
	valueHash := hashing.SHA256(EncodedValue(e))

	buf := make([]byte, 0, 2+len(mdBytes)+2+len(encKey)+32)
	buf = codec.AppendUint16(buf, uint16(len(mdBytes)))
	buf = append(buf, mdBytes...)
	buf = codec.AppendUint16(buf, uint16(len(encKey)))
	buf = append(buf, encKey...)
	buf = append(buf, valueHash[:]...)
	return hashing.SHA256(buf)
}

// KVDigest dispatches to KVDigestV0 or KVDigestV1 by header version, per
// spec §4.D.
func KVDigest(e *model.Entry, version uint16) ([32]byte, error) {
	switch version {
	case 0:
		return KVDigestV0(e)
	case 1:
		return KVDigestV1(e), nil
	default:
		return [32]byte{}, fmt.Errorf("digest: unsupported header version %d", version)
	}
}

// innerHash computes the version-specific inner hash folded into Alh.
func innerHash(h *model.TxHeader) [32]byte {
	buf := make([]byte, 0, 8+2+2+4+32+8+32)
	buf = codec.AppendUint64(buf, uint64(h.Ts))
	switch h.Version {
	case 0:
		buf = codec.AppendUint16(buf, 0)
		buf = codec.AppendUint16(buf, uint16(h.NEntries))
	case 1:
		buf = codec.AppendUint16(buf, 1)
		buf = codec.AppendUint16(buf, 0) // reserved tx-metadata length, always zero today
		buf = codec.AppendUint32(buf, uint32(h.NEntries))
	}
	buf = append(buf, h.EH[:]...)
	buf = codec.AppendUint64(buf, h.BlTxId)
	buf = append(buf, h.BlRoot[:]...)
	return hashing.SHA256(buf)
}

// Alh computes the transaction header's authenticated-log hash (spec
// §4.D): sha256(u64_be(id) || prevAlh || innerHash(header)).
func Alh(h *model.TxHeader) ([32]byte, error) {
	if h.Version != 0 && h.Version != 1 {
		return [32]byte{}, fmt.Errorf("digest: unsupported header version %d", h.Version)
	}
	inner := innerHash(h)
	buf := make([]byte, 0, 8+32+32)
	buf = codec.AppendUint64(buf, h.ID)
	buf = append(buf, h.PrevAlh[:]...)
	buf = append(buf, inner[:]...)
	return hashing.SHA256(buf), nil
}

// LeafFor returns sha256(LEAF_PREFIX || d), the pre-hashed leaf value every
// inclusion-style proof walk starts from (spec §4.E).
func LeafFor(d [32]byte) [32]byte {
	buf := make([]byte, 0, 1+32)
	buf = append(buf, codec.LeafPrefix)
	buf = append(buf, d[:]...)
	return hashing.SHA256(buf)
}
