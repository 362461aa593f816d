package statestore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/certen-io/verikv/pkg/clienterrors"
	"github.com/certen-io/verikv/pkg/model"
)

// SQLStore is the shared, cache-backed state store for stateless
// deployments (spec §4.F item 2), grounded on the teacher's
// pkg/database/client.go: functional-option construction over a pooled
// *sql.DB, context-bounded PingContext on dial.
type SQLStore struct {
	db     *sql.DB
	key    string
	check  bool
	logger *log.Logger
}

// SQLStoreOption configures an SQLStore.
type SQLStoreOption func(*SQLStore)

// WithSQLStoreLogger overrides the store's logger.
func WithSQLStoreLogger(logger *log.Logger) SQLStoreOption {
	return func(s *SQLStore) { s.logger = logger }
}

// NewSQLStore opens a pooled postgres connection at databaseURL and ensures
// the backing tables exist.
func NewSQLStore(ctx context.Context, databaseURL, address string, deploymentCheck bool, opts ...SQLStoreOption) (*SQLStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("statestore: database URL cannot be empty")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("statestore: open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLStore{
		db:     db,
		key:    deploymentKey(address),
		check:  deploymentCheck,
		logger: log.New(log.Writer(), "[statestore] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(store)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: ping database: %w", err)
	}

	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store.logger.Printf("connected to state database for deployment %s", store.key)
	return store, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS verikv_state (
			deployment_key TEXT NOT NULL,
			database_name  TEXT NOT NULL,
			tx_id          BIGINT NOT NULL,
			tx_hash        TEXT NOT NULL,
			signature      TEXT,
			PRIMARY KEY (deployment_key, database_name)
		)`)
	if err != nil {
		return fmt.Errorf("statestore: create state table: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS verikv_deployment_info (
			deployment_key TEXT PRIMARY KEY,
			label          TEXT NOT NULL,
			server_uuid    TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("statestore: create deployment info table: %w", err)
	}
	return nil
}

// Close closes the pooled database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetState loads the persisted ImmuState row for (deployment, database).
func (s *SQLStore) GetState(ctx context.Context, database string) (*model.ImmuState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT tx_id, tx_hash, signature FROM verikv_state WHERE deployment_key = $1 AND database_name = $2`,
		s.key, database)

	var txID int64
	var txHashHex string
	var signatureHex sql.NullString
	if err := row.Scan(&txID, &txHashHex, &signatureHex); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("statestore: query state: %w", err)
	}

	hash, err := hex.DecodeString(txHashHex)
	if err != nil || len(hash) != 32 {
		return nil, fmt.Errorf("statestore: corrupted tx_hash for %s", database)
	}
	state := &model.ImmuState{Database: database, TxId: uint64(txID)}
	copy(state.TxHash[:], hash)
	if signatureHex.Valid && signatureHex.String != "" {
		sig, err := hex.DecodeString(signatureHex.String)
		if err != nil {
			return nil, fmt.Errorf("statestore: corrupted signature for %s", database)
		}
		state.Signature = sig
	}
	return state, nil
}

// SetState upserts state, enforcing the same monotone write rule as
// FileStore within a single transaction.
func (s *SQLStore) SetState(ctx context.Context, state *model.ImmuState) error {
	if state == nil {
		return fmt.Errorf("statestore: nil state")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statestore: begin tx: %w", err)
	}
	defer tx.Rollback()

	var currentTxID int64
	err = tx.QueryRowContext(ctx,
		`SELECT tx_id FROM verikv_state WHERE deployment_key = $1 AND database_name = $2 FOR UPDATE`,
		s.key, state.Database).Scan(&currentTxID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("statestore: lock state row: %w", err)
	}
	if err == nil && uint64(currentTxID) >= state.TxId {
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verikv_state (deployment_key, database_name, tx_id, tx_hash, signature)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (deployment_key, database_name)
		DO UPDATE SET tx_id = EXCLUDED.tx_id, tx_hash = EXCLUDED.tx_hash, signature = EXCLUDED.signature`,
		s.key, state.Database, int64(state.TxId), hex.EncodeToString(state.TxHash[:]), hex.EncodeToString(state.Signature))
	if err != nil {
		return fmt.Errorf("statestore: upsert state: %w", err)
	}
	return tx.Commit()
}

// GetDeploymentInfo looks up this deployment's bound serverUuid; when this
// deployment has no row, it falls back to the first row of any deployment,
// the way FileStore falls back to the first sibling directory holding a
// deploymentinfo file.
func (s *SQLStore) GetDeploymentInfo(ctx context.Context) (*model.DeploymentInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT label, server_uuid FROM verikv_deployment_info WHERE deployment_key = $1`, s.key)
	var info model.DeploymentInfo
	if err := row.Scan(&info.Label, &info.ServerUuid); err == nil {
		return &info, nil
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("statestore: query deployment info: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT label, server_uuid FROM verikv_deployment_info LIMIT 1`)
	if err := row.Scan(&info.Label, &info.ServerUuid); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("statestore: scan deployment info: %w", err)
	}
	return &info, nil
}

// CreateDeploymentInfo inserts this deployment's binding, refusing to
// overwrite a conflicting serverUuid when identity checking is enabled.
func (s *SQLStore) CreateDeploymentInfo(ctx context.Context, info *model.DeploymentInfo) error {
	if info == nil {
		return fmt.Errorf("statestore: nil deployment info")
	}

	existing, err := s.GetDeploymentInfo(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		if s.check && existing.ServerUuid != info.ServerUuid {
			return clienterrors.Wrap(clienterrors.ErrVerification,
				"deployment %s already bound to serverUuid %s, got %s", s.key, existing.ServerUuid, info.ServerUuid)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verikv_deployment_info (deployment_key, label, server_uuid)
		VALUES ($1, $2, $3) ON CONFLICT (deployment_key) DO NOTHING`,
		s.key, info.Label, info.ServerUuid)
	if err != nil {
		return fmt.Errorf("statestore: insert deployment info: %w", err)
	}
	return nil
}
