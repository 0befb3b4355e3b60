package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/darwin/world"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot is the on-disk form of a map state, written when a bookmark
// fires or a run ends.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	MapID   string `json:"map_id"`
	Policy  string `json:"policy"`

	World world.Snapshot `json:"world"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// NewSnapshot wraps a map state for saving.
func NewSnapshot(mapID string, seed int64, policy string, ws world.Snapshot, b *Bookmark) *Snapshot {
	return &Snapshot{
		Version:  SnapshotVersion,
		Seed:     seed,
		MapID:    mapID,
		Policy:   policy,
		World:    ws,
		Bookmark: b,
	}
}

// FileName returns the snapshot file name, e.g. map_day12_population_crash.json.
func (s *Snapshot) FileName() string {
	name := fmt.Sprintf("%s_day%d", s.MapID, s.World.Day)
	if s.Bookmark != nil {
		name += "_" + string(s.Bookmark.Type)
	}
	return name + ".json"
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := validMapID(snapshot.MapID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, snapshot.FileName())
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, snapshot.Version)
	}
	return &snapshot, nil
}
