package client

import (
	"context"

	"github.com/certen-io/verikv/pkg/clienterrors"
	"github.com/certen-io/verikv/pkg/model"
	"github.com/certen-io/verikv/pkg/rpc"
)

// Get returns the current value of key without verification.
func (c *Client) Get(ctx context.Context, key []byte) (*model.Entry, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	entry, err := c.transport.Get(ctx, conn, sess, key, 0)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return entry, nil
}

// Set writes key=value without verification.
func (c *Client) Set(ctx context.Context, key, value []byte, metadata *model.KVMetadata) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	txId, err := c.transport.Set(ctx, conn, sess, key, value, metadata)
	if err != nil {
		return 0, clienterrors.FromTransport(err)
	}
	return txId, nil
}

// SetReference points key at referencedKey's value as of atTx, without
// verification.
func (c *Client) SetReference(ctx context.Context, key, referencedKey []byte, atTx uint64) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	txId, err := c.transport.SetReference(ctx, conn, sess, key, referencedKey, atTx)
	if err != nil {
		return 0, clienterrors.FromTransport(err)
	}
	return txId, nil
}

// Delete marks key as deleted.
func (c *Client) Delete(ctx context.Context, key []byte) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	txId, err := c.transport.Delete(ctx, conn, sess, key)
	if err != nil {
		return 0, clienterrors.FromTransport(err)
	}
	return txId, nil
}

// Scan lists entries matching opts without verification.
func (c *Client) Scan(ctx context.Context, opts rpc.ScanOptions) ([]*model.Entry, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	entries, err := c.transport.Scan(ctx, conn, sess, opts)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return entries, nil
}

// History lists the historical versions of key.
func (c *Client) History(ctx context.Context, key []byte, opts rpc.ScanOptions) ([]*model.Entry, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	entries, err := c.transport.History(ctx, conn, sess, key, opts)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return entries, nil
}

// GetAll retrieves multiple keys in a single round-trip.
func (c *Client) GetAll(ctx context.Context, keys [][]byte) ([]*model.Entry, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	entries, err := c.transport.GetAll(ctx, conn, sess, keys, 0)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return entries, nil
}

// ZAdd adds key to set with score, without verification.
func (c *Client) ZAdd(ctx context.Context, set, key []byte, score float64) (uint64, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return 0, err
	}
	txId, err := c.transport.ZAdd(ctx, conn, sess, set, key, score, 0)
	if err != nil {
		return 0, clienterrors.FromTransport(err)
	}
	return txId, nil
}

// ZScan lists sorted-set members matching opts.
func (c *Client) ZScan(ctx context.Context, opts rpc.ZScanOptions) ([]*model.ZEntry, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	entries, err := c.transport.ZScan(ctx, conn, sess, opts)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return entries, nil
}

// TxById retrieves a transaction by id without verification.
func (c *Client) TxById(ctx context.Context, txId uint64) (*model.Tx, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	tx, err := c.transport.TxById(ctx, conn, sess, txId)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return tx, nil
}

// FlushIndex flushes the server's secondary index.
func (c *Client) FlushIndex(ctx context.Context) error {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return err
	}
	return clienterrors.FromTransport(c.transport.FlushIndex(ctx, conn, sess))
}

// CompactIndex compacts the server's secondary index.
func (c *Client) CompactIndex(ctx context.Context) error {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return err
	}
	return clienterrors.FromTransport(c.transport.CompactIndex(ctx, conn, sess))
}

// SQLExec passes a SQL statement through to the server with no local
// verification (spec §4.I "SQL is passed through").
func (c *Client) SQLExec(ctx context.Context, stmt string, params map[string]any) error {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return err
	}
	return clienterrors.FromTransport(c.transport.SQLExec(ctx, conn, sess, stmt, params))
}

// SQLQuery passes a SQL query through to the server with no local
// verification.
func (c *Client) SQLQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	conn, sess, err := c.connAndSession()
	if err != nil {
		return nil, err
	}
	rows, err := c.transport.SQLQuery(ctx, conn, sess, query, params)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	return rows, nil
}

func (c *Client) connAndSession() (rpc.Conn, *model.Session, error) {
	conn, err := c.currentConn()
	if err != nil {
		return nil, nil, err
	}
	sess, err := c.currentSession()
	if err != nil {
		return nil, nil, err
	}
	return conn, sess, nil
}
