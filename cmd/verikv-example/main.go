// Command verikv-example is a minimal demonstration of the client: it
// opens a session, performs a verified write and read, and logs the
// transaction id of the write and the entry read back.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/certen-io/verikv/pkg/client"
	"github.com/certen-io/verikv/pkg/config"
	"github.com/certen-io/verikv/pkg/pool"
	"github.com/certen-io/verikv/pkg/statestore"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		key   = flag.String("key", "hello", "key to write and verify")
		value = flag.String("value", "world", "value to write")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store := statestore.NewFileStore(cfg.StateStoreRoot, cfg.ServerURL, cfg.DeploymentInfoCheck)

	connPool := pool.New(pool.Config{
		MaxConnectionsPerServer:        cfg.MaxConnectionsPerServer,
		IdleConnectionCheckInterval:    cfg.IdleConnectionCheckInterval,
		TerminateIdleConnectionTimeout: cfg.TerminateIdleConnectionTimeout,
		ConnectionShutdownTimeout:      cfg.ConnectionShutdownTimeout,
	})

	// transport is supplied by the caller's generated gRPC stub; see
	// pkg/rpc.Transport for the interface this binary expects.
	var transport transportStub

	c := client.New(cfg, transport, connPool, store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Open(ctx, cfg.Username, cfg.Password, cfg.Database); err != nil {
		log.Fatalf("open: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	txId, err := c.VerifiedSet(ctx, cfg.Database, []byte(*key), []byte(*value), nil)
	if err != nil {
		log.Fatalf("verified set: %v", err)
	}
	log.Printf("wrote %s=%s at tx %d", *key, *value, txId)

	entry, err := c.VerifiedGet(ctx, cfg.Database, []byte(*key))
	if err != nil {
		log.Fatalf("verified get: %v", err)
	}
	log.Printf("read %s=%s (tx %d)", entry.Key, entry.Value, entry.Tx)

	if err := c.Close(ctx); err != nil {
		log.Fatalf("close: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ConnectionShutdownTimeout)
	defer shutdownCancel()
	if err := connPool.Shutdown(shutdownCtx); err != nil {
		log.Printf("pool shutdown: %v", err)
	}
}
