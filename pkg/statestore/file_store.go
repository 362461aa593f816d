package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/certen-io/verikv/pkg/clienterrors"
	"github.com/certen-io/verikv/pkg/model"
)

const deploymentInfoFile = "deploymentinfo"

// FileStore is the default durable per-deployment store of spec §4.F. Each
// deployment gets its own directory, keyed by DeploymentKey(address); state
// files are written atomically (write-temp, fsync, rename, fsync dir), the
// way 2tbmz9y2xt-lang-rubin-protocol's writeManifestAtomic commits its
// chain manifest.
type FileStore struct {
	root    string
	address string
	key     string
	check   bool

	getSem    sync.Mutex
	setSem    sync.Mutex
	createSem sync.Mutex
}

// NewFileStore creates a FileStore rooted at root for the given gRPC
// address. When deploymentCheck is true, a deploymentinfo mismatch aborts
// with ErrVerification (spec §4.F "Deployment identity check").
func NewFileStore(root, address string, deploymentCheck bool) *FileStore {
	return &FileStore{
		root:    root,
		address: address,
		key:     deploymentKey(address),
		check:   deploymentCheck,
	}
}

func (s *FileStore) dir() string {
	return filepath.Join(s.root, s.key)
}

func (s *FileStore) statePath(database string) string {
	return filepath.Join(s.dir(), "state_"+database)
}

func (s *FileStore) infoPath() string {
	return filepath.Join(s.dir(), deploymentInfoFile)
}

// GetState loads the persisted ImmuState for database, or nil if none
// exists yet.
func (s *FileStore) GetState(ctx context.Context, database string) (*model.ImmuState, error) {
	s.getSem.Lock()
	defer s.getSem.Unlock()

	b, err := os.ReadFile(s.statePath(database))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: read state: %w", err)
	}
	var state model.ImmuState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("statestore: decode state: %w", err)
	}
	return &state, nil
}

// SetState persists state, but only if it is strictly newer than whatever
// is already on disk for the same database (spec §4.F monotone write
// rule).
func (s *FileStore) SetState(ctx context.Context, state *model.ImmuState) error {
	s.setSem.Lock()
	defer s.setSem.Unlock()

	if state == nil {
		return fmt.Errorf("statestore: nil state")
	}

	current, err := s.getStateLocked(state.Database)
	if err != nil {
		return err
	}
	if current != nil && !current.Newer(state) {
		return nil
	}

	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("statestore: mkdir: %w", err)
	}

	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("statestore: encode state: %w", err)
	}
	return writeFileAtomic(s.dir(), s.statePath(state.Database), b)
}

// getStateLocked reads state without acquiring getSem, for use from
// SetState which already holds setSem (state files are per-database, so
// this avoids a cross-semaphore acquisition order).
func (s *FileStore) getStateLocked(database string) (*model.ImmuState, error) {
	b, err := os.ReadFile(s.statePath(database))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: read state: %w", err)
	}
	var state model.ImmuState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("statestore: decode state: %w", err)
	}
	return &state, nil
}

// GetDeploymentInfo implements the spec §4.F deployment identity check: it
// looks up deploymentinfo under this store's own deployment key; if
// absent, it scans sibling directories for one whose serverUuid it can
// later be asked to adopt (callers do the adoption via CreateDeploymentInfo
// after a server round-trip confirms the uuid).
func (s *FileStore) GetDeploymentInfo(ctx context.Context) (*model.DeploymentInfo, error) {
	s.getSem.Lock()
	defer s.getSem.Unlock()

	b, err := os.ReadFile(s.infoPath())
	if os.IsNotExist(err) {
		return s.findSiblingDeployment()
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: read deploymentinfo: %w", err)
	}
	var info model.DeploymentInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, fmt.Errorf("statestore: decode deploymentinfo: %w", err)
	}
	return &info, nil
}

func (s *FileStore) findSiblingDeployment() (*model.DeploymentInfo, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: scan root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == s.key {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.root, e.Name(), deploymentInfoFile))
		if err != nil {
			continue
		}
		var info model.DeploymentInfo
		if err := json.Unmarshal(b, &info); err != nil {
			continue
		}
		return &info, nil
	}
	return nil, nil
}

// CreateDeploymentInfo writes deploymentinfo under this store's deployment
// key. If deployment-identity checking is enabled and an existing record
// disagrees on serverUuid, it fails with ErrVerification rather than
// overwrite it.
func (s *FileStore) CreateDeploymentInfo(ctx context.Context, info *model.DeploymentInfo) error {
	s.createSem.Lock()
	defer s.createSem.Unlock()

	if info == nil {
		return fmt.Errorf("statestore: nil deployment info")
	}

	if existing, err := s.readInfoLocked(); err == nil && existing != nil {
		if s.check && existing.ServerUuid != info.ServerUuid {
			return clienterrors.Wrap(clienterrors.ErrVerification,
				"deployment %s already bound to serverUuid %s, got %s", s.key, existing.ServerUuid, info.ServerUuid)
		}
		return nil
	}

	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("statestore: mkdir: %w", err)
	}
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("statestore: encode deploymentinfo: %w", err)
	}
	return writeFileAtomic(s.dir(), s.infoPath(), b)
}

func (s *FileStore) readInfoLocked() (*model.DeploymentInfo, error) {
	b, err := os.ReadFile(s.infoPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info model.DeploymentInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// writeFileAtomic commits final as write-temp -> fsync temp -> rename ->
// fsync dir, the crash-safe pattern this package is grounded on.
func writeFileAtomic(dir, final string, data []byte) error {
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("statestore: open tmp: %w", err)
	}
	_, werr := f.Write(data)
	serr := f.Sync()
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("statestore: write tmp: %w", werr)
	}
	if serr != nil {
		return fmt.Errorf("statestore: fsync tmp: %w", serr)
	}
	if cerr != nil {
		return fmt.Errorf("statestore: close tmp: %w", cerr)
	}

	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("statestore: rename: %w", err)
	}

	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("statestore: fsync dir open: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("statestore: fsync dir: %w", err)
	}
	return d.Close()
}
