package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/ident-cli/internal/model"
)

const (
	recordFile = "credentials.bin"
	keyFile    = "store.key"
)

// FileStore keeps the token pair in a sealed record under the user's config
// directory, so a session survives process restarts. A record that cannot be
// read, unsealed, or parsed reads as no session; the next login overwrites
// it. Persist failures are logged and otherwise degrade to an ephemeral
// session rather than failing the workflow that produced the tokens.
type FileStore struct {
	mu  sync.Mutex
	dir string
	seq uint64
	log *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created on
// first write. A nil logger disables logging.
func NewFileStore(dir string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{dir: dir, log: log}
}

func (s *FileStore) recordPath() string { return filepath.Join(s.dir, recordFile) }
func (s *FileStore) keyPath() string    { return filepath.Join(s.dir, keyFile) }

// Get implements Store.
func (s *FileStore) Get() (model.TokenPair, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(s.recordPath())
	if err != nil {
		return model.TokenPair{}, s.seq, false
	}
	master, err := os.ReadFile(s.keyPath())
	if err != nil || len(master) != masterKeyLen {
		s.log.Warn("credential record present but key file unreadable", zap.Error(err))
		return model.TokenPair{}, s.seq, false
	}
	plain, err := openRecord(master, blob)
	if err != nil {
		s.log.Warn("credential record unsealing failed", zap.Error(err))
		return model.TokenPair{}, s.seq, false
	}
	var pair model.TokenPair
	if err := json.Unmarshal(plain, &pair); err != nil || !pair.Complete() {
		return model.TokenPair{}, s.seq, false
	}
	return pair, s.seq, true
}

// Set implements Store.
func (s *FileStore) Set(pair model.TokenPair) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(pair)
	s.seq++
	return s.seq
}

// SetIf implements Store.
func (s *FileStore) SetIf(pair model.TokenPair, seq uint64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return s.seq, false
	}
	s.persist(pair)
	s.seq++
	return s.seq, true
}

// Clear implements Store.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.recordPath()); err != nil && !os.IsNotExist(err) {
		s.log.Warn("credential record removal failed", zap.Error(err))
	}
	s.seq++
}

// persist seals and writes the pair. Callers hold s.mu.
func (s *FileStore) persist(pair model.TokenPair) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.log.Warn("store dir creation failed", zap.Error(err))
		return
	}
	master, err := loadOrCreateMasterKey(s.keyPath())
	if err != nil {
		s.log.Warn("store key unavailable", zap.Error(err))
		return
	}
	plain, err := json.Marshal(pair)
	if err != nil {
		s.log.Warn("credential record encoding failed", zap.Error(err))
		return
	}
	blob, err := sealRecord(master, plain)
	if err != nil {
		s.log.Warn("credential record sealing failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.recordPath(), blob, 0o600); err != nil {
		s.log.Warn("credential record write failed", zap.Error(err))
	}
}
