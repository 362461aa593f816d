// Package codec implements the handful of binary encoding helpers the
// digest builders and wire (de)serializers share: big-endian scalar writes
// and the two prefix-wrapping conventions used by entry/value encoding.
package codec

import "encoding/binary"

// Leaf/node and key/value prefix bytes (spec §4.B).
const (
	LeafPrefix           byte = 0
	NodePrefix           byte = 1
	SetKeyPrefix         byte = 0
	SortedSetKeyPrefix   byte = 1
	PlainValuePrefix     byte = 0
	ReferenceValuePrefix byte = 1
)

// PutUint32 writes v big-endian into buf starting at off. buf must have at
// least off+4 bytes.
func PutUint32(buf []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(buf[off:off+4], v)
}

// PutUint64 writes v big-endian into buf starting at off. buf must have at
// least off+8 bytes.
func PutUint64(buf []byte, off int, v uint64) {
	binary.BigEndian.PutUint64(buf[off:off+8], v)
}

// AppendUint16 appends the big-endian encoding of v to buf.
func AppendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

// AppendUint32 appends the big-endian encoding of v to buf.
func AppendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// AppendUint64 appends the big-endian encoding of v to buf.
func AppendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// AppendInt64 appends the big-endian two's-complement encoding of v to buf.
func AppendInt64(buf []byte, v int64) []byte {
	return AppendUint64(buf, uint64(v))
}

// WrapWithPrefix returns prefix||key as a freshly allocated slice.
func WrapWithPrefix(key []byte, prefix byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = prefix
	copy(out[1:], key)
	return out
}

// WrapReferenceValueAt builds REFERENCE_VALUE_PREFIX || bigEndianU64(atTx) || referencedKey,
// total length 9+len(referencedKey), per spec §4.B.
func WrapReferenceValueAt(referencedKey []byte, atTx uint64) []byte {
	out := make([]byte, 9+len(referencedKey))
	out[0] = ReferenceValuePrefix
	PutUint64(out, 1, atTx)
	copy(out[9:], referencedKey)
	return out
}
