package main

import (
	"context"
	"fmt"

	"github.com/certen-io/verikv/pkg/model"
	"github.com/certen-io/verikv/pkg/rpc"
)

// transportStub is a placeholder rpc.Transport. Real binaries wire this
// package's Transport interface to a generated gRPC client stub instead;
// this exists only so the example demonstrates the client façade's shape
// without depending on a specific generated package.
type transportStub struct{}

func notImplemented(op string) error { return fmt.Errorf("verikv-example: %s not wired to a real transport", op) }

func (transportStub) OpenSession(ctx context.Context, conn rpc.Conn, username, password, database []byte) (*model.Session, error) {
	return nil, notImplemented("OpenSession")
}
func (transportStub) CloseSession(ctx context.Context, conn rpc.Conn, session *model.Session) error {
	return notImplemented("CloseSession")
}
func (transportStub) KeepAlive(ctx context.Context, conn rpc.Conn, session *model.Session) error {
	return notImplemented("KeepAlive")
}
func (transportStub) CurrentState(ctx context.Context, conn rpc.Conn, session *model.Session) (*model.ImmuState, error) {
	return nil, notImplemented("CurrentState")
}
func (transportStub) VerifiableTxById(ctx context.Context, conn rpc.Conn, session *model.Session, txId uint64, proveSinceTx uint64) (*model.Tx, *model.DualProof, error) {
	return nil, nil, notImplemented("VerifiableTxById")
}
func (transportStub) TxById(ctx context.Context, conn rpc.Conn, session *model.Session, txId uint64) (*model.Tx, error) {
	return nil, notImplemented("TxById")
}
func (transportStub) TxScan(ctx context.Context, conn rpc.Conn, session *model.Session, initialTx uint64, limit uint64, desc bool) ([]*model.Tx, error) {
	return nil, notImplemented("TxScan")
}
func (transportStub) Get(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte, atTx uint64) (*model.Entry, error) {
	return nil, notImplemented("Get")
}
func (transportStub) VerifiableGet(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte, atTx, proveSinceTx uint64) (*model.Entry, *model.DualProof, error) {
	return nil, nil, notImplemented("VerifiableGet")
}
func (transportStub) Set(ctx context.Context, conn rpc.Conn, session *model.Session, key, value []byte, metadata *model.KVMetadata) (uint64, error) {
	return 0, notImplemented("Set")
}
func (transportStub) VerifiableSet(ctx context.Context, conn rpc.Conn, session *model.Session, key, value []byte, metadata *model.KVMetadata, proveSinceTx uint64) (uint64, *model.DualProof, error) {
	return 0, nil, notImplemented("VerifiableSet")
}
func (transportStub) SetReference(ctx context.Context, conn rpc.Conn, session *model.Session, key, referencedKey []byte, atTx uint64) (uint64, error) {
	return 0, notImplemented("SetReference")
}
func (transportStub) VerifiableSetReference(ctx context.Context, conn rpc.Conn, session *model.Session, key, referencedKey []byte, atTx, proveSinceTx uint64) (uint64, *model.DualProof, error) {
	return 0, nil, notImplemented("VerifiableSetReference")
}
func (transportStub) Delete(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte) (uint64, error) {
	return 0, notImplemented("Delete")
}
func (transportStub) Scan(ctx context.Context, conn rpc.Conn, session *model.Session, opts rpc.ScanOptions) ([]*model.Entry, error) {
	return nil, notImplemented("Scan")
}
func (transportStub) History(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte, opts rpc.ScanOptions) ([]*model.Entry, error) {
	return nil, notImplemented("History")
}
func (transportStub) GetAll(ctx context.Context, conn rpc.Conn, session *model.Session, keys [][]byte, atTx uint64) ([]*model.Entry, error) {
	return nil, notImplemented("GetAll")
}
func (transportStub) ZAdd(ctx context.Context, conn rpc.Conn, session *model.Session, set, key []byte, score float64, atTx uint64) (uint64, error) {
	return 0, notImplemented("ZAdd")
}
func (transportStub) VerifiableZAdd(ctx context.Context, conn rpc.Conn, session *model.Session, set, key []byte, score float64, atTx, proveSinceTx uint64) (uint64, *model.DualProof, error) {
	return 0, nil, notImplemented("VerifiableZAdd")
}
func (transportStub) ZScan(ctx context.Context, conn rpc.Conn, session *model.Session, opts rpc.ZScanOptions) ([]*model.ZEntry, error) {
	return nil, notImplemented("ZScan")
}
func (transportStub) FlushIndex(ctx context.Context, conn rpc.Conn, session *model.Session) error {
	return notImplemented("FlushIndex")
}
func (transportStub) CompactIndex(ctx context.Context, conn rpc.Conn, session *model.Session) error {
	return notImplemented("CompactIndex")
}
func (transportStub) CreateDatabaseV2(ctx context.Context, conn rpc.Conn, session *model.Session, name string) error {
	return notImplemented("CreateDatabaseV2")
}
func (transportStub) UseDatabase(ctx context.Context, conn rpc.Conn, session *model.Session, name string) (*model.Session, error) {
	return nil, notImplemented("UseDatabase")
}
func (transportStub) DatabaseListV2(ctx context.Context, conn rpc.Conn, session *model.Session) ([]string, error) {
	return nil, notImplemented("DatabaseListV2")
}
func (transportStub) Health(ctx context.Context, conn rpc.Conn) error {
	return notImplemented("Health")
}
func (transportStub) ListUsers(ctx context.Context, conn rpc.Conn, session *model.Session) ([]string, error) {
	return nil, notImplemented("ListUsers")
}
func (transportStub) CreateUser(ctx context.Context, conn rpc.Conn, session *model.Session, username, password string, permission uint32, database string) error {
	return notImplemented("CreateUser")
}
func (transportStub) ChangePassword(ctx context.Context, conn rpc.Conn, session *model.Session, username, oldPassword, newPassword []byte) error {
	return notImplemented("ChangePassword")
}
func (transportStub) SQLExec(ctx context.Context, conn rpc.Conn, session *model.Session, stmt string, params map[string]any) error {
	return notImplemented("SQLExec")
}
func (transportStub) SQLQuery(ctx context.Context, conn rpc.Conn, session *model.Session, query string, params map[string]any) ([]map[string]any, error) {
	return nil, notImplemented("SQLQuery")
}
