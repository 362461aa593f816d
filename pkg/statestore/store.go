// Package statestore implements the two interchangeable authenticated-state
// stores of spec §4.F: a durable per-deployment JSON store (FileStore) and a
// shared SQL-backed store (SQLStore) for stateless deployments.
package statestore

import (
	"context"

	"github.com/certen-io/verikv/pkg/model"
)

// Store is the pluggable persistence surface the client façade's state
// validation path depends on.
type Store interface {
	GetState(ctx context.Context, database string) (*model.ImmuState, error)
	SetState(ctx context.Context, state *model.ImmuState) error
	GetDeploymentInfo(ctx context.Context) (*model.DeploymentInfo, error)
	CreateDeploymentInfo(ctx context.Context, info *model.DeploymentInfo) error
}

// DeploymentKey derives the spec §4.F directory/row key for a gRPC address:
// sha256(address) -> base64 -> uppercase -> '+'->'-', '/'->'_' -> drop '='
// -> truncate to 30 chars.
func DeploymentKey(address string) string {
	return deploymentKey(address)
}
