package client

import (
	"context"
	"fmt"

	"github.com/certen-io/verikv/pkg/clienterrors"
	"github.com/certen-io/verikv/pkg/digest"
	"github.com/certen-io/verikv/pkg/model"
	"github.com/certen-io/verikv/pkg/verify"
)

// runVerified wraps the common verified-operation shape of spec §4.I: read
// the locally remembered state for database, pass its txId as
// proveSinceTx, verify the returned dual proof and the entry's inclusion,
// and atomically advance the stored state on success.
func (c *Client) runVerified(
	ctx context.Context,
	database string,
	call func(proveSinceTx uint64) (entryDigest32 [32]byte, txId uint64, proof *model.DualProof, err error),
) (uint64, error) {
	state, err := c.State(ctx, database)
	if err != nil {
		return 0, err
	}

	entryDig, txId, proof, err := call(state.TxId)
	if err != nil {
		return 0, clienterrors.FromTransport(err)
	}
	if proof == nil || proof.TargetTxHeader == nil {
		return 0, clienterrors.Wrap(clienterrors.ErrVerification, "server returned no dual proof")
	}

	if proof.InclusionProof != nil {
		eh := proof.TargetTxHeader.EH
		if !verify.Inclusion(proof.InclusionProof, entryDig, eh) {
			return 0, clienterrors.Wrap(clienterrors.ErrVerification, "entry inclusion check failed for tx %d", txId)
		}
	}

	newState, err := chainState(state, txId, proof, database)
	if err != nil {
		return 0, fmt.Errorf("client: verify: %w", err)
	}
	if err := c.adoptState(ctx, newState); err != nil {
		return 0, err
	}
	return txId, nil
}

// VerifiedGet fetches key and cryptographically verifies its inclusion
// before returning it, advancing the client's authenticated state.
func (c *Client) VerifiedGet(ctx context.Context, database string, key []byte) (*model.Entry, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}

	state, err := c.State(ctx, database)
	if err != nil {
		return nil, err
	}

	entry, proof, err := c.transport.VerifiableGet(ctx, conn, sess, key, 0, state.TxId)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	if proof == nil || proof.TargetTxHeader == nil {
		return nil, clienterrors.Wrap(clienterrors.ErrVerification, "server returned no dual proof for get")
	}

	entryDig, err := digest.KVDigest(entry, proof.TargetTxHeader.Version)
	if err != nil {
		return nil, fmt.Errorf("client: entry digest: %w", err)
	}
	if proof.InclusionProof != nil {
		if !verify.Inclusion(proof.InclusionProof, entryDig, proof.TargetTxHeader.EH) {
			return nil, clienterrors.Wrap(clienterrors.ErrVerification, "entry inclusion check failed for key %q", key)
		}
	}

	newState, err := chainState(state, entry.Tx, proof, database)
	if err != nil {
		return nil, fmt.Errorf("client: verify: %w", err)
	}
	if err := c.adoptState(ctx, newState); err != nil {
		return nil, err
	}
	return entry, nil
}

// VerifiedSet writes key=value and verifies the resulting transaction's
// dual proof before advancing state.
func (c *Client) VerifiedSet(ctx context.Context, database string, key, value []byte, metadata *model.KVMetadata) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	return c.runVerified(ctx, database, func(proveSinceTx uint64) ([32]byte, uint64, *model.DualProof, error) {
		txId, proof, err := c.transport.VerifiableSet(ctx, conn, sess, key, value, metadata, proveSinceTx)
		if err != nil {
			return [32]byte{}, 0, nil, err
		}
		entry := &model.Entry{Tx: txId, Key: key, Value: value, Metadata: metadata}
		version := uint16(0)
		if proof != nil && proof.TargetTxHeader != nil {
			version = proof.TargetTxHeader.Version
		}
		entryDig, derr := digest.KVDigest(entry, version)
		if derr != nil {
			return [32]byte{}, 0, nil, derr
		}
		return entryDig, txId, proof, nil
	})
}

// VerifiedSetReference points key at referencedKey's value as of atTx and
// verifies the resulting transaction.
func (c *Client) VerifiedSetReference(ctx context.Context, database string, key, referencedKey []byte, atTx uint64) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	return c.runVerified(ctx, database, func(proveSinceTx uint64) ([32]byte, uint64, *model.DualProof, error) {
		txId, proof, err := c.transport.VerifiableSetReference(ctx, conn, sess, key, referencedKey, atTx, proveSinceTx)
		if err != nil {
			return [32]byte{}, 0, nil, err
		}
		entry := &model.Entry{
			Tx:  txId,
			Key: key,
			ReferencedBy: &model.Reference{
				Tx:   txId,
				Key:  referencedKey,
				AtTx: atTx,
			},
		}
		version := uint16(0)
		if proof != nil && proof.TargetTxHeader != nil {
			version = proof.TargetTxHeader.Version
		}
		entryDig, derr := digest.KVDigest(entry, version)
		if derr != nil {
			return [32]byte{}, 0, nil, derr
		}
		return entryDig, txId, proof, nil
	})
}

// VerifiedZAdd adds key to set with score and verifies the resulting
// transaction.
func (c *Client) VerifiedZAdd(ctx context.Context, database string, set, key []byte, score float64, atTx uint64) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	state, err := c.State(ctx, database)
	if err != nil {
		return 0, err
	}

	txId, proof, err := c.transport.VerifiableZAdd(ctx, conn, sess, set, key, score, atTx, state.TxId)
	if err != nil {
		return 0, clienterrors.FromTransport(err)
	}
	if proof == nil || proof.TargetTxHeader == nil {
		return 0, clienterrors.Wrap(clienterrors.ErrVerification, "server returned no dual proof for zadd")
	}

	newState, err := chainState(state, txId, proof, database)
	if err != nil {
		return 0, fmt.Errorf("client: verify: %w", err)
	}
	if err := c.adoptState(ctx, newState); err != nil {
		return 0, err
	}
	return txId, nil
}

// VerifiedTxById retrieves transaction txId along with a dual proof since
// the client's current state, verifies it, and advances state.
func (c *Client) VerifiedTxById(ctx context.Context, database string, txId uint64) (*model.Tx, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	state, err := c.State(ctx, database)
	if err != nil {
		return nil, err
	}

	tx, proof, err := c.transport.VerifiableTxById(ctx, conn, sess, txId, state.TxId)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	if proof == nil {
		return nil, clienterrors.Wrap(clienterrors.ErrVerification, "server returned no dual proof for tx %d", txId)
	}

	newState, err := chainState(state, txId, proof, database)
	if err != nil {
		return nil, fmt.Errorf("client: verify: %w", err)
	}
	if err := c.adoptState(ctx, newState); err != nil {
		return nil, err
	}
	return tx, nil
}
