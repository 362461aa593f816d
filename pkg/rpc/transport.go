// Package rpc declares the wire-level surface the client façade, session
// manager and connection pool depend on. The concrete implementation is an
// external collaborator (a generated gRPC/HTTP2 stub); this package exists
// so the rest of the module can be written, tested and mocked against a
// plain Go interface instead of the generated client directly.
package rpc

import (
	"context"

	"github.com/certen-io/verikv/pkg/model"
)

// Conn is the minimal lifecycle surface the connection pool manages. The
// concrete type backing it is a *grpc.ClientConn.
type Conn interface {
	Close() error
}

// ScanOptions bounds a Scan or History call.
type ScanOptions struct {
	Prefix  []byte
	SeekKey []byte
	EndKey  []byte
	Limit   uint64
	Desc    bool
	SinceTx uint64
}

// ZScanOptions bounds a ZScan call over a sorted set.
type ZScanOptions struct {
	Set      []byte
	SeekKey  []byte
	SeekTx   uint64
	Limit    uint64
	MinScore *float64
	MaxScore *float64
	Desc     bool
	SinceTx  uint64
}

// Transport is the RPC surface of spec §6: session lifecycle, state
// queries, plain and verifiable KV/sorted-set operations, transaction and
// database administration, and a pass-through SQL surface. Every call
// accepts a context for cancellation/deadline propagation (spec §5).
type Transport interface {
	OpenSession(ctx context.Context, conn Conn, username, password, database []byte) (*model.Session, error)
	CloseSession(ctx context.Context, conn Conn, session *model.Session) error
	KeepAlive(ctx context.Context, conn Conn, session *model.Session) error

	CurrentState(ctx context.Context, conn Conn, session *model.Session) (*model.ImmuState, error)
	VerifiableTxById(ctx context.Context, conn Conn, session *model.Session, txId uint64, proveSinceTx uint64) (*model.Tx, *model.DualProof, error)
	TxById(ctx context.Context, conn Conn, session *model.Session, txId uint64) (*model.Tx, error)
	TxScan(ctx context.Context, conn Conn, session *model.Session, initialTx uint64, limit uint64, desc bool) ([]*model.Tx, error)

	Get(ctx context.Context, conn Conn, session *model.Session, key []byte, atTx uint64) (*model.Entry, error)
	VerifiableGet(ctx context.Context, conn Conn, session *model.Session, key []byte, atTx, proveSinceTx uint64) (*model.Entry, *model.DualProof, error)
	Set(ctx context.Context, conn Conn, session *model.Session, key, value []byte, metadata *model.KVMetadata) (uint64, error)
	VerifiableSet(ctx context.Context, conn Conn, session *model.Session, key, value []byte, metadata *model.KVMetadata, proveSinceTx uint64) (uint64, *model.DualProof, error)
	SetReference(ctx context.Context, conn Conn, session *model.Session, key, referencedKey []byte, atTx uint64) (uint64, error)
	VerifiableSetReference(ctx context.Context, conn Conn, session *model.Session, key, referencedKey []byte, atTx, proveSinceTx uint64) (uint64, *model.DualProof, error)
	Delete(ctx context.Context, conn Conn, session *model.Session, key []byte) (uint64, error)

	Scan(ctx context.Context, conn Conn, session *model.Session, opts ScanOptions) ([]*model.Entry, error)
	History(ctx context.Context, conn Conn, session *model.Session, key []byte, opts ScanOptions) ([]*model.Entry, error)
	GetAll(ctx context.Context, conn Conn, session *model.Session, keys [][]byte, atTx uint64) ([]*model.Entry, error)

	ZAdd(ctx context.Context, conn Conn, session *model.Session, set, key []byte, score float64, atTx uint64) (uint64, error)
	VerifiableZAdd(ctx context.Context, conn Conn, session *model.Session, set, key []byte, score float64, atTx, proveSinceTx uint64) (uint64, *model.DualProof, error)
	ZScan(ctx context.Context, conn Conn, session *model.Session, opts ZScanOptions) ([]*model.ZEntry, error)

	FlushIndex(ctx context.Context, conn Conn, session *model.Session) error
	CompactIndex(ctx context.Context, conn Conn, session *model.Session) error

	CreateDatabaseV2(ctx context.Context, conn Conn, session *model.Session, name string) error
	UseDatabase(ctx context.Context, conn Conn, session *model.Session, name string) (*model.Session, error)
	DatabaseListV2(ctx context.Context, conn Conn, session *model.Session) ([]string, error)
	Health(ctx context.Context, conn Conn) error

	ListUsers(ctx context.Context, conn Conn, session *model.Session) ([]string, error)
	CreateUser(ctx context.Context, conn Conn, session *model.Session, username, password string, permission uint32, database string) error
	ChangePassword(ctx context.Context, conn Conn, session *model.Session, username, oldPassword, newPassword []byte) error

	SQLExec(ctx context.Context, conn Conn, session *model.Session, stmt string, params map[string]any) error
	SQLQuery(ctx context.Context, conn Conn, session *model.Session, query string, params map[string]any) ([]map[string]any, error)
}
