// Package client implements the client façade of spec §4.I: the public
// entry point orchestrating connection, session, heartbeat and state
// management on top of rpc.Transport, pool.Pool, session.Manager and
// statestore.Store. Grounded on the teacher's pkg/attestation/service.go
// orchestrator shape (mu sync.RWMutex, functional-option Config, log.New
// with a component prefix) generalized from attestation collection to
// connection/session lifecycle.
package client

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/certen-io/verikv/pkg/clienterrors"
	"github.com/certen-io/verikv/pkg/config"
	"github.com/certen-io/verikv/pkg/digest"
	"github.com/certen-io/verikv/pkg/model"
	"github.com/certen-io/verikv/pkg/pool"
	"github.com/certen-io/verikv/pkg/rpc"
	"github.com/certen-io/verikv/pkg/session"
	"github.com/certen-io/verikv/pkg/statestore"
	"github.com/certen-io/verikv/pkg/verify"
	"google.golang.org/grpc"
)

// Client is the public façade: a connection reference, an optional active
// session, a heartbeat task and the three mutexes spec §5 names
// (connectionSync, sessionSync, stateSync).
type Client struct {
	cfg       *config.Config
	transport rpc.Transport
	pool      *pool.Pool
	sessions  *session.Manager
	store     statestore.Store
	logger    *log.Logger

	address string

	connMu sync.Mutex
	conn   *grpc.ClientConn

	sessionMu sync.Mutex
	sess      *model.Session

	stateMu sync.RWMutex
	states  map[string]*model.ImmuState

	setup setupLatch

	heartbeatClose chan struct{}
	heartbeatDone  chan struct{}

	onHeartbeat func() // test observer hook, nil in production
}

// Option configures a Client beyond its Config.
type Option func(*Client)

// WithLogger overrides the client's logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHeartbeatObserver registers a callback invoked after every heartbeat
// tick, for deterministic testing of the heartbeat loop (spec §4.I).
func WithHeartbeatObserver(fn func()) Option {
	return func(c *Client) { c.onHeartbeat = fn }
}

// New creates a Client bound to cfg, transport and store. The connection
// pool is process-global and may be shared across Clients; pass the same
// *pool.Pool to every Client dialing the same fleet of servers.
func New(cfg *config.Config, transport rpc.Transport, p *pool.Pool, store statestore.Store, opts ...Option) *Client {
	c := &Client{
		cfg:       cfg,
		transport: transport,
		pool:      p,
		sessions:  session.NewManager(transport),
		store:     store,
		logger:    log.New(log.Writer(), "[client] ", log.LstdFlags),
		address:   assembleAddress(cfg.ServerURL, cfg.ServerPort),
		states:    make(map[string]*model.ImmuState),
		setup:     newSetupLatch(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// assembleAddress builds the gRPC dial target: a serverURL that already
// carries a scheme ("://") is returned unchanged; otherwise the host is
// lower-cased and joined with the port as "host:port", with no scheme
// prefix added.
func assembleAddress(serverURL string, port int) string {
	if strings.Contains(serverURL, "://") {
		return serverURL
	}
	return fmt.Sprintf("%s:%d", strings.ToLower(serverURL), port)
}

// Open acquires a connection, opens a session, validates local vs. server
// state, and starts the heartbeat. Not callable with an already-open
// session; the setup latch serializes concurrent Open/Close.
func (c *Client) Open(ctx context.Context, username, password, database string) error {
	if err := c.setup.Lock(ctx); err != nil {
		return fmt.Errorf("client: open: %w", err)
	}
	defer c.setup.Unlock()

	c.sessionMu.Lock()
	alreadyOpen := c.sess != nil
	c.sessionMu.Unlock()
	if alreadyOpen {
		return clienterrors.Wrap(clienterrors.ErrInvalidOperation, "client already has an open session")
	}

	c.connMu.Lock()
	conn, err := c.pool.Acquire(ctx, c.address)
	if err != nil {
		c.connMu.Unlock()
		return fmt.Errorf("client: acquire connection: %w", err)
	}
	c.conn = conn
	c.connMu.Unlock()

	sess, err := c.sessions.Open(ctx, conn, username, password, database)
	if err != nil {
		c.pool.Release(conn)
		return err
	}

	c.sessionMu.Lock()
	c.sess = sess
	c.sessionMu.Unlock()

	if err := c.validateStateAtOpen(ctx, conn, sess, database); err != nil {
		_ = c.sessions.Close(ctx, conn, sess)
		c.pool.Release(conn)
		c.sessionMu.Lock()
		c.sess = nil
		c.sessionMu.Unlock()
		return err
	}

	c.startHeartbeat(conn, sess)
	return nil
}

// Close stops the heartbeat, closes the session, releases the connection
// and clears the active session. Idempotent against a released
// connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.setup.Lock(ctx); err != nil {
		return fmt.Errorf("client: close: %w", err)
	}
	defer c.setup.Unlock()

	c.stopHeartbeat()

	c.sessionMu.Lock()
	sess := c.sess
	c.sess = nil
	c.sessionMu.Unlock()

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectionShutdownTimeout)
	defer cancel()

	var closeErr error
	if sess != nil {
		closeErr = c.sessions.Close(shutdownCtx, conn, sess)
	}
	c.pool.Release(conn)
	return closeErr
}

// Reconnect releases and re-acquires a connection without touching the
// session.
func (c *Client) Reconnect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.pool.Release(c.conn)
	}
	conn, err := c.pool.Acquire(ctx, c.address)
	if err != nil {
		return fmt.Errorf("client: reconnect: %w", err)
	}
	c.conn = conn
	return nil
}

func (c *Client) currentConn() (*grpc.ClientConn, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return nil, clienterrors.Wrap(clienterrors.ErrInvalidOperation, "client has no active connection")
	}
	return c.conn, nil
}

func (c *Client) currentSession() (*model.Session, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.sess == nil {
		return nil, clienterrors.Wrap(clienterrors.ErrInvalidOperation, "client has no open session")
	}
	return c.sess, nil
}

// State returns the locally remembered ImmuState for database; if none
// exists, it fetches the server's current state (validating its signature
// when a signing key is configured), stores it, and returns it.
func (c *Client) State(ctx context.Context, database string) (*model.ImmuState, error) {
	c.stateMu.RLock()
	state, ok := c.states[database]
	c.stateMu.RUnlock()
	if ok {
		return state, nil
	}

	conn, err := c.currentConn()
	if err != nil {
		return nil, err
	}
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}

	serverState, err := c.transport.CurrentState(ctx, conn, sess)
	if err != nil {
		return nil, clienterrors.FromTransport(err)
	}
	if err := c.verifySignature(serverState); err != nil {
		return nil, err
	}
	if err := c.adoptState(ctx, serverState); err != nil {
		return nil, err
	}
	return serverState, nil
}

func (c *Client) adoptState(ctx context.Context, state *model.ImmuState) error {
	c.stateMu.Lock()
	current := c.states[state.Database]
	if current == nil || current.Newer(state) {
		c.states[state.Database] = state
	}
	c.stateMu.Unlock()

	if c.store != nil {
		return c.store.SetState(ctx, state)
	}
	return nil
}

func (c *Client) verifySignature(state *model.ImmuState) error {
	if c.cfg.ServerSigningKeyHex == "" {
		return nil
	}
	pub, err := parseSigningKey(c.cfg.ServerSigningKeyHex)
	if err != nil {
		return fmt.Errorf("client: signing key: %w", err)
	}
	ok, err := verify.Signature(pub, state)
	if err != nil {
		return fmt.Errorf("client: signature check: %w", err)
	}
	if !ok {
		return clienterrors.Wrap(clienterrors.ErrVerification, "server state signature invalid for database %s", state.Database)
	}
	return nil
}

// validateStateAtOpen implements spec §4.I "State validation at open":
// pull the server's currentState; if no local state exists, adopt it;
// otherwise run a dual-proof check between the local and server states.
func (c *Client) validateStateAtOpen(ctx context.Context, conn rpc.Conn, sess *model.Session, database string) error {
	serverState, err := c.transport.CurrentState(ctx, conn, sess)
	if err != nil {
		return clienterrors.FromTransport(err)
	}
	if err := c.verifySignature(serverState); err != nil {
		return err
	}

	local, err := c.loadLocalState(ctx, database)
	if err != nil {
		return err
	}
	if local == nil {
		return c.adoptState(ctx, serverState)
	}
	if local.TxId == serverState.TxId {
		return nil
	}

	sourceState, sourceTxId, targetTxId := local, local.TxId, serverState.TxId
	if sourceTxId > targetTxId {
		sourceState, sourceTxId, targetTxId = serverState, targetTxId, sourceTxId
	}
	_, proof, err := c.transport.VerifiableTxById(ctx, conn, sess, targetTxId, sourceTxId)
	if err != nil {
		return clienterrors.FromTransport(err)
	}

	newState, err := chainState(sourceState, targetTxId, proof, database)
	if err != nil {
		return fmt.Errorf("client: state validation at open: %w", err)
	}
	return c.adoptState(ctx, newState)
}

// chainState advances a locally trusted state to the transaction proof
// describes. verify.DualProof requires a genuine prior transaction to
// chain from (spec §4.E step 2 rejects sourceTxId == 0); when state is
// still the untrusted bootstrap sentinel (TxId == 0, no transaction
// observed yet) there is nothing to chain from, so the target header's
// own Alh is trusted directly instead, mirroring the same first-use trust
// validateStateAtOpen already grants an empty local state.
func chainState(state *model.ImmuState, targetTxId uint64, proof *model.DualProof, database string) (*model.ImmuState, error) {
	if state.TxId == 0 {
		if proof == nil || proof.TargetTxHeader == nil {
			return nil, fmt.Errorf("verify: dual proof missing headers: %w", clienterrors.ErrVerification)
		}
		if proof.TargetTxHeader.ID != targetTxId {
			return nil, fmt.Errorf("verify: target header does not match expected target transaction: %w", clienterrors.ErrVerification)
		}
		targetAlh, err := digest.Alh(proof.TargetTxHeader)
		if err != nil {
			return nil, fmt.Errorf("verify: target header alh: %w: %w", clienterrors.ErrVerification, err)
		}
		return &model.ImmuState{Database: database, TxId: targetTxId, TxHash: targetAlh}, nil
	}
	newState, err := verify.DualProof(state, targetTxId, proof, database)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", clienterrors.ErrVerification, err)
	}
	return newState, nil
}

func (c *Client) loadLocalState(ctx context.Context, database string) (*model.ImmuState, error) {
	c.stateMu.RLock()
	if s, ok := c.states[database]; ok {
		c.stateMu.RUnlock()
		return s, nil
	}
	c.stateMu.RUnlock()

	if c.store == nil {
		return nil, nil
	}
	return c.store.GetState(ctx, database)
}

func (c *Client) startHeartbeat(conn rpc.Conn, sess *model.Session) {
	c.heartbeatClose = make(chan struct{})
	c.heartbeatDone = make(chan struct{})

	go func() {
		defer close(c.heartbeatDone)
		ticker := time.NewTicker(c.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.heartbeatClose:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HeartbeatInterval)
				c.sessions.KeepAlive(ctx, conn, sess)
				cancel()
				if c.onHeartbeat != nil {
					c.onHeartbeat()
				}
			}
		}
	}()
}

func (c *Client) stopHeartbeat() {
	if c.heartbeatClose == nil {
		return
	}
	close(c.heartbeatClose)
	<-c.heartbeatDone
	c.heartbeatClose = nil
	c.heartbeatDone = nil
}
