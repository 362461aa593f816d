// Package session implements the session manager of spec §4.G: opening
// and closing authenticated sessions, and the per-session metadata cache
// every authenticated RPC attaches. Grounded on the teacher's
// accumulate-lite-client-2/liteclient/core/liteclient.go orchestrator
// pattern (functional constructor, log.New with a component prefix) and
// generalized from account orchestration to credential lifecycle.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/certen-io/verikv/pkg/model"
	"github.com/certen-io/verikv/pkg/rpc"
)

// credentialPool recycles scratch buffers used to UTF-8 encode credentials
// before handing them to the transport, so Open doesn't allocate a fresh
// buffer on every call (spec §4.G "Credentials are UTF-8 encoded into a
// scratch buffer allocated from a pool and cleared on return").
var credentialPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 256)
		return &buf
	},
}

func encodeCredential(s string) *[]byte {
	buf := credentialPool.Get().(*[]byte)
	*buf = append((*buf)[:0], s...)
	return buf
}

func releaseCredential(buf *[]byte) {
	for i := range *buf {
		(*buf)[i] = 0
	}
	*buf = (*buf)[:0]
	credentialPool.Put(buf)
}

// Manager opens and closes sessions against a transport, caching each
// session's gRPC metadata for reuse across calls (spec §4.G).
type Manager struct {
	transport rpc.Transport
	logger    *log.Logger

	mu       sync.RWMutex
	metadata map[string]map[string]string // sessionID -> headers
}

// NewManager creates a session Manager bound to transport.
func NewManager(transport rpc.Transport) *Manager {
	return &Manager{
		transport: transport,
		logger:    log.New(log.Writer(), "[session] ", log.LstdFlags),
		metadata:  make(map[string]map[string]string),
	}
}

// Open authenticates against conn and returns the resulting Session,
// caching its metadata headers for later reuse.
func (m *Manager) Open(ctx context.Context, conn rpc.Conn, username, password, database string) (*model.Session, error) {
	userBuf := encodeCredential(username)
	defer releaseCredential(userBuf)
	passBuf := encodeCredential(password)
	defer releaseCredential(passBuf)
	dbBuf := encodeCredential(database)
	defer releaseCredential(dbBuf)

	sess, err := m.transport.OpenSession(ctx, conn, *userBuf, *passBuf, *dbBuf)
	if err != nil {
		return nil, fmt.Errorf("session: open: %w", err)
	}

	m.mu.Lock()
	m.metadata[sess.ID] = map[string]string{"sessionid": sess.ID}
	m.mu.Unlock()

	m.logger.Printf("opened session %s for database %s", sess.ID, database)
	return sess, nil
}

// Close terminates sess and evicts its cached metadata. Idempotent against
// a nil session.
func (m *Manager) Close(ctx context.Context, conn rpc.Conn, sess *model.Session) error {
	if sess == nil {
		return nil
	}

	m.mu.Lock()
	delete(m.metadata, sess.ID)
	m.mu.Unlock()

	if err := m.transport.CloseSession(ctx, conn, sess); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	m.logger.Printf("closed session %s", sess.ID)
	return nil
}

// Metadata returns the cached header set for sess, constructing it on
// first use if absent.
func (m *Manager) Metadata(sess *model.Session) map[string]string {
	if sess == nil {
		return nil
	}

	m.mu.RLock()
	md, ok := m.metadata[sess.ID]
	m.mu.RUnlock()
	if ok {
		return md
	}

	md = map[string]string{"sessionid": sess.ID}
	m.mu.Lock()
	m.metadata[sess.ID] = md
	m.mu.Unlock()
	return md
}

// KeepAlive issues a heartbeat for sess, ignoring transport errors the way
// spec §4.I's heartbeat loop does.
func (m *Manager) KeepAlive(ctx context.Context, conn rpc.Conn, sess *model.Session) {
	if err := m.transport.KeepAlive(ctx, conn, sess); err != nil {
		m.logger.Printf("keepalive for session %s failed (ignored): %v", sess.ID, err)
	}
}
