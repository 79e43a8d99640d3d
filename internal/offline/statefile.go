package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"taskdeck/internal/model"
)

// StateNamespace versions the on-disk format. A file with a different
// namespace is from an incompatible build and is discarded rather than
// half-parsed.
const StateNamespace = "taskdeck.state.v1"

// State is everything a session persists at exit and restores at start:
// the pending operation queue plus the last known data snapshots used to
// prime the cache before the first fetch.
type State struct {
	Namespace  string              `json:"namespace"`
	SavedAt    time.Time           `json:"saved_at"`
	PendingOps []Op                `json:"pending_ops,omitempty"`
	Tasks      []model.Task        `json:"tasks,omitempty"`
	Messages   []model.ChatMessage `json:"messages,omitempty"`

	// NextTempID continues the negative ID sequence for offline-created
	// tasks so restored pending creates never collide with new ones.
	NextTempID int `json:"next_temp_id,omitempty"`

	// IDMap records the server ID each replayed placeholder create received,
	// so queued ops that still name the placeholder resolve after a restart.
	IDMap map[int]int `json:"id_map,omitempty"`
}

// LoadState reads the state file. A missing file is not an error: it returns
// an empty state, the normal case for a first run.
func LoadState(path string) (State, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{Namespace: StateNamespace}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("offline: read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("offline: parse state file: %w", err)
	}
	if st.Namespace != StateNamespace {
		return State{}, fmt.Errorf("offline: state file namespace %q, want %q", st.Namespace, StateNamespace)
	}
	return st, nil
}

// SaveState writes the state file atomically via a temp file and rename, so
// a crash mid-write can never leave a truncated file behind.
func SaveState(path string, st State) error {
	st.Namespace = StateNamespace
	st.SavedAt = time.Now().UTC()

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("offline: encode state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("offline: create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("offline: create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("offline: write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("offline: close state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("offline: replace state file: %w", err)
	}
	return nil
}

// DefaultStatePath places the state file under the user config directory,
// falling back to the working directory when none is available.
func DefaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskdeck", "state.json")
	}
	return "taskdeck-state.json"
}
