package model

import "testing"

func TestKVMetadataSerializeRoundTrip(t *testing.T) {
	expires := int64(1700000000)
	m := &KVMetadata{Deleted: true, NonIndexable: true, ExpiresAt: &expires}

	buf := m.Serialize()
	if len(buf) != m.SerializedLength() {
		t.Fatalf("len(buf) = %d, want %d", len(buf), m.SerializedLength())
	}

	got, err := DeserializeKVMetadata(buf)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Deleted != m.Deleted || got.NonIndexable != m.NonIndexable {
		t.Fatalf("flags mismatch: got %+v, want %+v", got, m)
	}
	if got.ExpiresAt == nil || *got.ExpiresAt != expires {
		t.Fatalf("expiresAt mismatch: got %v, want %d", got.ExpiresAt, expires)
	}
}

func TestKVMetadataEmptySerializesToNil(t *testing.T) {
	var m *KVMetadata
	if !m.IsEmpty() {
		t.Fatalf("nil metadata should be empty")
	}
	if m.Serialize() != nil {
		t.Fatalf("nil metadata should serialize to nil")
	}

	m2 := &KVMetadata{}
	if !m2.IsEmpty() {
		t.Fatalf("zero-value metadata should be empty")
	}
}

func TestDeserializeEmptyBufferIsAbsent(t *testing.T) {
	got, err := DeserializeKVMetadata(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil metadata for empty buffer, got %+v", got)
	}
}

func TestDeserializeUnknownAttribute(t *testing.T) {
	_, err := DeserializeKVMetadata([]byte{0x7f})
	if err == nil {
		t.Fatalf("expected error for unknown attribute byte")
	}
}

func TestDeserializeShortExpiresAt(t *testing.T) {
	_, err := DeserializeKVMetadata([]byte{attrExpiresAt, 0x01, 0x02})
	if err == nil {
		t.Fatalf("expected error for truncated expiresAt")
	}
}
