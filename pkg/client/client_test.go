package client

import (
	"context"
	"testing"
	"time"

	"github.com/certen-io/verikv/pkg/codec"
	"github.com/certen-io/verikv/pkg/config"
	"github.com/certen-io/verikv/pkg/digest"
	"github.com/certen-io/verikv/pkg/hashing"
	"github.com/certen-io/verikv/pkg/model"
	"github.com/certen-io/verikv/pkg/pool"
	"github.com/certen-io/verikv/pkg/rpc"
)

// innerHashRef duplicates digest's unexported innerHash formula so tests
// can act as an independent prover building fixtures the verifier must
// accept, the way pkg/verify's inclusion_test.go builds its own tree
// fixtures.
func innerHashRef(h *model.TxHeader) [32]byte {
	buf := make([]byte, 0, 8+2+2+4+32+8+32)
	buf = codec.AppendUint64(buf, uint64(h.Ts))
	switch h.Version {
	case 0:
		buf = codec.AppendUint16(buf, 0)
		buf = codec.AppendUint16(buf, uint16(h.NEntries))
	case 1:
		buf = codec.AppendUint16(buf, 1)
		buf = codec.AppendUint16(buf, 0)
		buf = codec.AppendUint32(buf, uint32(h.NEntries))
	}
	buf = append(buf, h.EH[:]...)
	buf = codec.AppendUint64(buf, h.BlTxId)
	buf = append(buf, h.BlRoot[:]...)
	return hashing.SHA256(buf)
}

// fakeServer is a minimal single-database immudb-shaped server: every
// write appends one transaction whose header chains PrevAlh to the
// previous one, with BlTxId always 0 so the dual-proof check collapses to
// a pure linear-proof chain (the binary-log/inclusion-range machinery is
// exercised directly by pkg/verify's own tests).
type fakeServer struct {
	rpc.Transport // nil embed: only the methods below are implemented

	headers map[uint64]*model.TxHeader
	entries map[uint64]*model.Entry
	nextTx  uint64
}

func newFakeServer() *fakeServer {
	genesis := &model.TxHeader{Version: 1, ID: 0}
	s := &fakeServer{
		headers: map[uint64]*model.TxHeader{0: genesis},
		entries: map[uint64]*model.Entry{},
		nextTx:  0,
	}
	return s
}

func (s *fakeServer) OpenSession(ctx context.Context, conn rpc.Conn, username, password, database []byte) (*model.Session, error) {
	return &model.Session{ID: "sess-1", ServerUuid: "uuid-1"}, nil
}
func (s *fakeServer) CloseSession(ctx context.Context, conn rpc.Conn, session *model.Session) error {
	return nil
}
func (s *fakeServer) KeepAlive(ctx context.Context, conn rpc.Conn, session *model.Session) error {
	return nil
}

func (s *fakeServer) CurrentState(ctx context.Context, conn rpc.Conn, session *model.Session) (*model.ImmuState, error) {
	h := s.headers[s.nextTx]
	alh, err := digest.Alh(h)
	if err != nil {
		return nil, err
	}
	return &model.ImmuState{Database: "defaultdb", TxId: s.nextTx, TxHash: alh}, nil
}

// dualProofBetween builds the proof object linking txFrom to txTo,
// assuming both live in this in-memory chain with BlTxId == 0 throughout.
func (s *fakeServer) dualProofBetween(txFrom, txTo uint64) *model.DualProof {
	from := s.headers[txFrom]
	to := s.headers[txTo]
	fromAlh := mustAlh(nil, from)

	terms := make([][32]byte, 0, txTo-txFrom+1)
	terms = append(terms, fromAlh)
	for id := txFrom + 1; id <= txTo; id++ {
		terms = append(terms, innerHashRef(s.headers[id]))
	}

	return &model.DualProof{
		SourceTxHeader: from,
		TargetTxHeader: to,
		LinearProof:    &model.LinearProof{SourceTxId: txFrom, TargetTxId: txTo, Terms: terms},
	}
}

func mustAlh(t *testing.T, h *model.TxHeader) [32]byte {
	alh, err := digest.Alh(h)
	if err != nil {
		panic(err)
	}
	return alh
}

func (s *fakeServer) appendSet(key, value []byte, metadata *model.KVMetadata) (uint64, *model.Entry) {
	prev := s.headers[s.nextTx]
	prevAlh := mustAlh(nil, prev)

	entry := &model.Entry{Key: key, Value: value, Metadata: metadata}
	entryDig, err := digest.KVDigest(entry, 1)
	if err != nil {
		panic(err)
	}

	id := s.nextTx + 1
	header := &model.TxHeader{
		Version:  1,
		ID:       id,
		PrevAlh:  prevAlh,
		Ts:       int64(id) * 1000,
		NEntries: 1,
		EH:       digest.LeafFor(entryDig),
	}
	entry.Tx = id
	s.headers[id] = header
	s.entries[id] = entry
	s.nextTx = id
	return id, entry
}

func (s *fakeServer) Set(ctx context.Context, conn rpc.Conn, session *model.Session, key, value []byte, metadata *model.KVMetadata) (uint64, error) {
	id, _ := s.appendSet(key, value, metadata)
	return id, nil
}

func (s *fakeServer) VerifiableSet(ctx context.Context, conn rpc.Conn, session *model.Session, key, value []byte, metadata *model.KVMetadata, proveSinceTx uint64) (uint64, *model.DualProof, error) {
	id, _ := s.appendSet(key, value, metadata)
	return id, s.dualProofBetween(proveSinceTx, id), nil
}

func (s *fakeServer) Get(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte, atTx uint64) (*model.Entry, error) {
	for id := s.nextTx; id >= 1; id-- {
		if e, ok := s.entries[id]; ok && string(e.Key) == string(key) {
			return e, nil
		}
	}
	return nil, nil
}

func (s *fakeServer) VerifiableGet(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte, atTx, proveSinceTx uint64) (*model.Entry, *model.DualProof, error) {
	e, err := s.Get(ctx, conn, session, key, atTx)
	if err != nil || e == nil {
		return nil, nil, err
	}
	return e, s.dualProofBetween(proveSinceTx, e.Tx), nil
}

func testClient(t *testing.T, srv *fakeServer) *Client {
	t.Helper()
	cfg := &config.Config{
		ServerURL:                 "localhost",
		ServerPort:                3322,
		HeartbeatInterval:         time.Hour,
		ConnectionShutdownTimeout: time.Second,
	}
	p := pool.New(pool.Config{
		MaxConnectionsPerServer:        1,
		IdleConnectionCheckInterval:    time.Hour,
		TerminateIdleConnectionTimeout: time.Hour,
		ConnectionShutdownTimeout:      time.Second,
	})
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return New(cfg, srv, p, nil)
}

func TestPlainSetThenGet(t *testing.T) {
	srv := newFakeServer()
	c := testClient(t, srv)
	ctx := context.Background()

	if err := c.Open(ctx, "immudb", "immudb", "defaultdb"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(ctx)

	txId, err := c.Set(ctx, []byte("k1"), []byte("v1"), nil)
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	entry, err := c.Get(ctx, []byte("k1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(entry.Value) != "v1" {
		t.Fatalf("value = %q, want v1", entry.Value)
	}
	if entry.Tx != txId {
		t.Fatalf("entry.Tx = %d, want %d", entry.Tx, txId)
	}
}

func TestVerifiedSetAdvancesState(t *testing.T) {
	srv := newFakeServer()
	c := testClient(t, srv)
	ctx := context.Background()

	if err := c.Open(ctx, "immudb", "immudb", "defaultdb"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(ctx)

	txId, err := c.VerifiedSet(ctx, "defaultdb", []byte("k2"), []byte("v2"), nil)
	if err != nil {
		t.Fatalf("verifiedset: %v", err)
	}

	state, err := c.State(ctx, "defaultdb")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.TxId != txId {
		t.Fatalf("state.TxId = %d, want %d", state.TxId, txId)
	}
	wantAlh := mustAlh(nil, srv.headers[txId])
	if state.TxHash != wantAlh {
		t.Fatalf("state.TxHash mismatch")
	}

	entry, err := c.VerifiedGet(ctx, "defaultdb", []byte("k2"))
	if err != nil {
		t.Fatalf("verifiedget: %v", err)
	}
	if string(entry.Value) != "v2" {
		t.Fatalf("value = %q, want v2", entry.Value)
	}

	after, err := c.State(ctx, "defaultdb")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if after.TxId < state.TxId {
		t.Fatalf("state must not regress: before=%d after=%d", state.TxId, after.TxId)
	}
}

func TestVerifiedGetRejectsCorruptedLinearProof(t *testing.T) {
	srv := newFakeServer()
	c := testClient(t, srv)
	ctx := context.Background()

	if err := c.Open(ctx, "immudb", "immudb", "defaultdb"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(ctx)

	if _, err := c.VerifiedSet(ctx, "defaultdb", []byte("k3"), []byte("v3"), nil); err != nil {
		t.Fatalf("verifiedset: %v", err)
	}

	before, err := c.State(ctx, "defaultdb")
	if err != nil {
		t.Fatalf("state: %v", err)
	}

	corrupting := &corruptingTransport{fakeServer: srv}
	c2 := New(&config.Config{ServerURL: "localhost", ServerPort: 3322, HeartbeatInterval: time.Hour, ConnectionShutdownTimeout: time.Second},
		corrupting, poolFor(t), nil)
	if err := c2.Open(ctx, "immudb", "immudb", "defaultdb"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c2.Close(ctx)
	c2.stateMu.Lock()
	c2.states["defaultdb"] = before
	c2.stateMu.Unlock()

	if _, err := c2.VerifiedGet(ctx, "defaultdb", []byte("k3")); err == nil {
		t.Fatalf("expected corrupted linear proof to be rejected")
	}

	stillBefore, err := c2.State(ctx, "defaultdb")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if stillBefore.TxId != before.TxId || stillBefore.TxHash != before.TxHash || stillBefore.Database != before.Database {
		t.Fatalf("state must be retained byte-for-byte after a failed verification: before=%+v after=%+v", before, stillBefore)
	}
}

func poolFor(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New(pool.Config{
		MaxConnectionsPerServer:        1,
		IdleConnectionCheckInterval:    time.Hour,
		TerminateIdleConnectionTimeout: time.Hour,
		ConnectionShutdownTimeout:      time.Second,
	})
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return p
}

// corruptingTransport flips a bit in every VerifiableGet's linear proof to
// exercise the "corrupted proof never advances state" property (spec
// scenario S3).
type corruptingTransport struct {
	*fakeServer
}

func (c *corruptingTransport) VerifiableGet(ctx context.Context, conn rpc.Conn, session *model.Session, key []byte, atTx, proveSinceTx uint64) (*model.Entry, *model.DualProof, error) {
	entry, proof, err := c.fakeServer.VerifiableGet(ctx, conn, session, key, atTx, proveSinceTx)
	if err != nil || proof == nil {
		return entry, proof, err
	}
	if len(proof.LinearProof.Terms) > 0 {
		proof.LinearProof.Terms[0][0] ^= 0x01
	}
	return entry, proof, nil
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := newFakeServer()
	c := testClient(t, srv)
	ctx := context.Background()

	if err := c.Open(ctx, "immudb", "immudb", "defaultdb"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("second close must be a well-defined no-op, got %v", err)
	}
}

func TestOpenTwiceIsInvalidOperation(t *testing.T) {
	srv := newFakeServer()
	c := testClient(t, srv)
	ctx := context.Background()

	if err := c.Open(ctx, "immudb", "immudb", "defaultdb"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(ctx)

	if err := c.Open(ctx, "immudb", "immudb", "defaultdb"); err == nil {
		t.Fatalf("expected second open on a live session to fail")
	}
}
