// Package pool implements the process-global connection pool of spec §4.H:
// a bounded, per-address list of gRPC connections with random-assignment
// acquire, refcounted release, and a background idle reaper. Dial path
// grounded on luxfi-consensus/networking/grpc/grpcutils/util.go's
// Dial/DialContext (grpc.DialContext + insecure.NewCredentials()).
package pool

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Item is one pooled connection and its refcount bookkeeping (spec §4.H).
type Item struct {
	Conn         *grpc.ClientConn
	RefCount     int32
	LastChangeTs time.Time
}

// Config bounds the pool's behavior per spec §4.H.
type Config struct {
	MaxConnectionsPerServer        int
	IdleConnectionCheckInterval    time.Duration
	TerminateIdleConnectionTimeout time.Duration
	ConnectionShutdownTimeout      time.Duration
}

// DefaultConfig mirrors the teacher's modest defaults for pooled resources.
func DefaultConfig() Config {
	return Config{
		MaxConnectionsPerServer:        4,
		IdleConnectionCheckInterval:    30 * time.Second,
		TerminateIdleConnectionTimeout: 2 * time.Minute,
		ConnectionShutdownTimeout:      5 * time.Second,
	}
}

// Pool is the process-global, per-address connection pool of spec §4.H.
// Every mutation of the table and of a per-address list happens under mu;
// connection I/O (dial, close) happens outside the lock.
type Pool struct {
	cfg Config

	mu    sync.Mutex
	table map[string][]*Item

	stopReaper chan struct{}
	reaperDone chan struct{}
}

// New creates a Pool and starts its idle reaper goroutine.
func New(cfg Config) *Pool {
	p := &Pool{
		cfg:        cfg,
		table:      make(map[string][]*Item),
		stopReaper: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	go p.reap()
	return p
}

func dial(ctx context.Context, address string) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, address, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Acquire returns a connection for address, creating one if the address is
// new or below MaxConnectionsPerServer, otherwise returning a uniformly
// random existing connection with its refcount bumped (spec §4.H
// "Acquire").
func (p *Pool) Acquire(ctx context.Context, address string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	list := p.table[address]

	if len(list) == 0 || len(list) < p.cfg.MaxConnectionsPerServer {
		p.mu.Unlock()
		conn, err := dial(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("pool: dial %s: %w", address, err)
		}
		item := &Item{Conn: conn, RefCount: 0, LastChangeTs: time.Now()}

		p.mu.Lock()
		p.table[address] = append(p.table[address], item)
		p.mu.Unlock()
		return conn, nil
	}

	idx := rand.Intn(len(list))
	item := list[idx]
	item.RefCount++
	item.LastChangeTs = time.Now()
	conn := item.Conn
	p.mu.Unlock()
	return conn, nil
}

// Release decrements the refcount of the first item whose connection
// matches conn and whose refcount is above zero (spec §4.H "Release").
func (p *Pool) Release(conn *grpc.ClientConn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, list := range p.table {
		for _, item := range list {
			if item.Conn == conn && item.RefCount > 0 {
				item.RefCount--
				item.LastChangeTs = time.Now()
				return
			}
		}
	}
}

func (p *Pool) reap() {
	defer close(p.reaperDone)

	ticker := time.NewTicker(p.cfg.IdleConnectionCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopReaper:
			return
		case <-ticker.C:
			p.reapOnce()
		}
	}
}

func (p *Pool) reapOnce() {
	now := time.Now()

	p.mu.Lock()
	var toClose []*grpc.ClientConn
	for addr, list := range p.table {
		kept := list[:0:0]
		for _, item := range list {
			if item.RefCount == 0 && now.Sub(item.LastChangeTs) >= p.cfg.TerminateIdleConnectionTimeout {
				toClose = append(toClose, item.Conn)
				continue
			}
			kept = append(kept, item)
		}
		p.table[addr] = kept
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, conn := range toClose {
		wg.Add(1)
		go func(c *grpc.ClientConn) {
			defer wg.Done()
			_ = c.Close()
		}(conn)
	}
	wg.Wait()
}

// Shutdown signals the reaper to stop, waits for it, then concurrently
// closes every pooled connection and clears the table (spec §4.H
// "Shutdown").
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.stopReaper)

	select {
	case <-p.reaperDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	var conns []*grpc.ClientConn
	for _, list := range p.table {
		for _, item := range list {
			conns = append(conns, item.Conn)
		}
	}
	p.table = make(map[string][]*Item)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, conn := range conns {
			wg.Add(1)
			go func(c *grpc.ClientConn) {
				defer wg.Done()
				_ = c.Close()
			}(conn)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
