package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// immuStateWire is the exact on-disk/wire JSON shape from spec §6:
// {"database":"<name>","txId":<u64>,"txHash":"<base64 32B>","signature":"<base64?>"}
type immuStateWire struct {
	Database  string `json:"database"`
	TxId      uint64 `json:"txId"`
	TxHash    string `json:"txHash"`
	Signature string `json:"signature,omitempty"`
}

// MarshalJSON encodes an ImmuState using the spec's wire field names.
func (s ImmuState) MarshalJSON() ([]byte, error) {
	w := immuStateWire{
		Database: s.Database,
		TxId:     s.TxId,
		TxHash:   base64.StdEncoding.EncodeToString(s.TxHash[:]),
	}
	if len(s.Signature) > 0 {
		w.Signature = base64.StdEncoding.EncodeToString(s.Signature)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the spec's wire JSON shape back into an ImmuState.
func (s *ImmuState) UnmarshalJSON(data []byte) error {
	var w immuStateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("model: decode ImmuState: %w", err)
	}
	hash, err := base64.StdEncoding.DecodeString(w.TxHash)
	if err != nil {
		return fmt.Errorf("model: decode ImmuState.txHash: %w", err)
	}
	if len(hash) != 32 {
		return fmt.Errorf("model: ImmuState.txHash must be 32 bytes, got %d", len(hash))
	}
	s.Database = w.Database
	s.TxId = w.TxId
	copy(s.TxHash[:], hash)
	if w.Signature != "" {
		sig, err := base64.StdEncoding.DecodeString(w.Signature)
		if err != nil {
			return fmt.Errorf("model: decode ImmuState.signature: %w", err)
		}
		s.Signature = sig
	} else {
		s.Signature = nil
	}
	return nil
}

// deploymentInfoWire is the on-disk JSON shape: {"label": "...", "serveruuid": "..."}
type deploymentInfoWire struct {
	Label      string `json:"label"`
	ServerUuid string `json:"serveruuid"`
}

// MarshalJSON encodes DeploymentInfo using the spec's lowercase field name.
func (d DeploymentInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(deploymentInfoWire{Label: d.Label, ServerUuid: d.ServerUuid})
}

// UnmarshalJSON decodes DeploymentInfo from the spec's wire JSON shape.
func (d *DeploymentInfo) UnmarshalJSON(data []byte) error {
	var w deploymentInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("model: decode DeploymentInfo: %w", err)
	}
	d.Label = w.Label
	d.ServerUuid = w.ServerUuid
	return nil
}
