package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	identityFileName = "identity.json"
	appDirName       = "vote-tui"
)

// Identity is the locally persisted voter: a stable id and the last
// successfully recorded vote ("" when none).
type Identity struct {
	VoterID  string `json:"voterId"`
	LastVote string `json:"lastVote,omitempty"`
}

// IdentityStore loads and saves the Identity under the XDG state dir.
type IdentityStore struct {
	dir string

	mu  sync.Mutex
	cur *Identity
}

// NewIdentityStore creates a store in dir. Pass "" for
// ~/.local/state/vote-tui (respecting XDG_STATE_HOME).
func NewIdentityStore(dir string) *IdentityStore {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &IdentityStore{dir: dir}
}

// Path returns the full path to the identity file.
func (s *IdentityStore) Path() string {
	return filepath.Join(s.dir, identityFileName)
}

// LoadOrCreate returns the stored identity, generating and persisting a new
// voter id when the file is missing or holds none.
func (s *IdentityStore) LoadOrCreate() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		return *s.cur, nil
	}

	var id Identity
	data, err := os.ReadFile(s.Path())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &id); err != nil {
			return Identity{}, fmt.Errorf("parsing identity: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return Identity{}, fmt.Errorf("reading identity: %w", err)
	}

	if id.VoterID == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return Identity{}, fmt.Errorf("generating voter id: %w", err)
		}
		id.VoterID = u.String()
		if err := s.save(id); err != nil {
			return Identity{}, err
		}
	}
	s.cur = &id
	return id, nil
}

// SaveVote records option as the last successful vote.
func (s *IdentityStore) SaveVote(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return fmt.Errorf("identity not loaded")
	}
	next := *s.cur
	next.LastVote = option
	if err := s.save(next); err != nil {
		return err
	}
	s.cur = &next
	return nil
}

// save writes id with a temp-file-then-rename.
func (s *IdentityStore) save(id Identity) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling identity: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".identity-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming identity file: %w", err)
	}
	committed = true
	return nil
}

func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
