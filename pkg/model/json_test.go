package model

import (
	"encoding/json"
	"testing"
)

func TestImmuStateJSONRoundTrip(t *testing.T) {
	want := ImmuState{
		Database:  "defaultdb",
		TxId:      42,
		TxHash:    [32]byte{1, 2, 3, 4},
		Signature: []byte{9, 9, 9},
	}

	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got ImmuState
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Database != want.Database || got.TxId != want.TxId || got.TxHash != want.TxHash {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
	if string(got.Signature) != string(want.Signature) {
		t.Fatalf("signature round trip mismatch: got %v want %v", got.Signature, want.Signature)
	}
}

func TestImmuStateJSONOmitsEmptySignature(t *testing.T) {
	state := ImmuState{Database: "defaultdb", TxId: 1, TxHash: [32]byte{7}}

	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}
	if _, present := asMap["signature"]; present {
		t.Fatalf("expected signature field to be omitted when empty, got %v", asMap)
	}

	var got ImmuState
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Signature != nil {
		t.Fatalf("expected nil signature after round trip, got %v", got.Signature)
	}
}

func TestImmuStateUnmarshalRejectsShortHash(t *testing.T) {
	raw := []byte(`{"database":"defaultdb","txId":1,"txHash":"AAAA"}`)
	var got ImmuState
	if err := json.Unmarshal(raw, &got); err == nil {
		t.Fatalf("expected an error for a txHash that doesn't decode to 32 bytes")
	}
}

func TestDeploymentInfoJSONRoundTrip(t *testing.T) {
	want := DeploymentInfo{Label: "prod", ServerUuid: "11111111-1111-1111-1111-111111111111"}

	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got DeploymentInfo
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestImmuStateNewer(t *testing.T) {
	var nilState *ImmuState
	if !nilState.Newer(&ImmuState{TxId: 1}) {
		t.Fatalf("a nil local state must treat any other state as newer")
	}

	current := &ImmuState{TxId: 5}
	if current.Newer(&ImmuState{TxId: 5}) {
		t.Fatalf("equal txId must not be considered newer")
	}
	if current.Newer(&ImmuState{TxId: 4}) {
		t.Fatalf("a lower txId must not be considered newer")
	}
	if !current.Newer(&ImmuState{TxId: 6}) {
		t.Fatalf("a strictly higher txId must be considered newer")
	}
}
