package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Manifest describes one render run and every asset on disk. After an
// --only rerun, Seed and SampleRate describe the latest run; each asset
// records the settings it was rendered with.
type Manifest struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Seed        uint64    `json:"seed"`
	SampleRate  int       `json:"sample_rate"`
	Assets      []Asset   `json:"assets"`
}

// Asset is a manifest entry.
type Asset struct {
	Name        string  `json:"name"`
	Kind        Kind    `json:"kind"`
	Path        string  `json:"path"` // slash-separated, relative to the manifest
	DisplayName string  `json:"display_name"`
	Description string  `json:"description,omitempty"`
	Profile     string  `json:"profile,omitempty"`
	Texture     string  `json:"texture,omitempty"`
	Duration    int     `json:"duration"` // seconds
	Samples     int     `json:"samples"`
	Peak        float64 `json:"peak"`
	Seed        uint64  `json:"seed"`
	SampleRate  int     `json:"sample_rate"`
}

// ReadManifest loads a manifest. A missing file yields (nil, nil).
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// WriteManifest writes m as indented JSON, replacing path atomically.
func WriteManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename manifest into %s: %w", path, err)
	}
	return nil
}

// stamped returns the assets with run settings filled in for entries written
// before assets carried their own.
func (m *Manifest) stamped() []Asset {
	out := make([]Asset, len(m.Assets))
	for i, a := range m.Assets {
		if a.SampleRate == 0 {
			a.Seed, a.SampleRate = m.Seed, m.SampleRate
		}
		out[i] = a
	}
	return out
}

// merge returns the entries of prev updated with fresh, ordered as jobs.
// Entries for assets no longer in the catalog are dropped.
func merge(jobs []Job, prev, fresh []Asset) []Asset {
	byName := make(map[string]Asset, len(prev)+len(fresh))
	for _, a := range prev {
		byName[a.Name] = a
	}
	for _, a := range fresh {
		byName[a.Name] = a
	}
	out := make([]Asset, 0, len(byName))
	for _, j := range jobs {
		if a, ok := byName[j.Name]; ok {
			out = append(out, a)
		}
	}
	return out
}
