package model

import "github.com/certen-io/verikv/pkg/codec"

// Metadata attribute codes, fixed serialization order per spec §4.D.
const (
	attrDeleted      byte = 0x00
	attrExpiresAt    byte = 0x01
	attrNonIndexable byte = 0x02
)

// KVMetadata is the optional attribute set attached to an Entry/Reference:
// a deletion tombstone flag, a non-indexable flag, and an optional
// expiration time. Zero value is "no metadata".
type KVMetadata struct {
	Deleted      bool
	NonIndexable bool
	ExpiresAt    *int64 // unix seconds, nil if unset
}

// IsEmpty reports whether m carries no attributes at all (as opposed to nil).
func (m *KVMetadata) IsEmpty() bool {
	return m == nil || (!m.Deleted && !m.NonIndexable && m.ExpiresAt == nil)
}

// SerializedLength returns the exact byte length Serialize would produce,
// without allocating: 1 byte per flag present, 9 bytes for the expiry
// attribute (1 tag + 8 value) when present.
func (m *KVMetadata) SerializedLength() int {
	if m == nil {
		return 0
	}
	n := 0
	if m.Deleted {
		n++
	}
	if m.NonIndexable {
		n++
	}
	if m.ExpiresAt != nil {
		n += 9
	}
	return n
}

// Serialize writes the canonical, order-fixed wire form: deleted, then
// nonIndexable, then expiresAt. Returns nil for a nil/empty metadata.
func (m *KVMetadata) Serialize() []byte {
	if m.IsEmpty() {
		return nil
	}
	buf := make([]byte, 0, m.SerializedLength())
	if m.Deleted {
		buf = append(buf, attrDeleted)
	}
	if m.NonIndexable {
		buf = append(buf, attrNonIndexable)
	}
	if m.ExpiresAt != nil {
		buf = append(buf, attrExpiresAt)
		buf = codec.AppendInt64(buf, *m.ExpiresAt)
	}
	return buf
}

// DeserializeKVMetadata parses the canonical form Serialize produces. An
// empty input yields (nil, nil) — absent metadata, not an error.
func DeserializeKVMetadata(buf []byte) (*KVMetadata, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	m := &KVMetadata{}
	i := 0
	for i < len(buf) {
		switch buf[i] {
		case attrDeleted:
			m.Deleted = true
			i++
		case attrNonIndexable:
			m.NonIndexable = true
			i++
		case attrExpiresAt:
			if i+9 > len(buf) {
				return nil, errShortExpiresAt
			}
			var v int64
			for _, b := range buf[i+1 : i+9] {
				v = v<<8 | int64(b)
			}
			m.ExpiresAt = &v
			i += 9
		default:
			return nil, errUnknownAttribute
		}
	}
	return m, nil
}
