package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/darwin/config"
)

// StatsSink receives one Stats record per simulated day.
type StatsSink interface {
	Write(mapID string, s Stats) error
}

// OutputManager writes statistics to <dir>/<mapID>.csv, one file per map.
type OutputManager struct {
	dir string

	mu    sync.Mutex
	files map[string]*statsFile
}

type statsFile struct {
	f             *os.File
	headerWritten bool
}

// NewOutputManager creates the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir, files: make(map[string]*statsFile)}, nil
}

// WriteConfig saves the configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// Write appends s to the map's CSV file, writing the header on first use.
func (om *OutputManager) Write(mapID string, s Stats) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	sf, err := om.open(mapID)
	if err != nil {
		return err
	}

	records := []Stats{s}
	if !sf.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, sf.f); err != nil {
			return fmt.Errorf("writing stats for %s: %w", mapID, err)
		}
		sf.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, sf.f); err != nil {
		return fmt.Errorf("writing stats for %s: %w", mapID, err)
	}
	return nil
}

func (om *OutputManager) open(mapID string) (*statsFile, error) {
	if sf, ok := om.files[mapID]; ok {
		return sf, nil
	}
	if err := validMapID(mapID); err != nil {
		return nil, err
	}
	path := filepath.Join(om.dir, mapID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	sf := &statsFile{f: f}
	om.files[mapID] = sf
	return sf, nil
}

// validMapID rejects ids that cannot be used as a plain file name.
func validMapID(mapID string) error {
	if mapID == "" || filepath.Base(mapID) != mapID {
		return fmt.Errorf("invalid map id %q", mapID)
	}
	return nil
}

// Path returns the CSV path used for mapID.
func (om *OutputManager) Path(mapID string) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, mapID+".csv")
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	var firstErr error
	for id, sf := range om.files {
		if err := sf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(om.files, id)
	}
	return firstErr
}
