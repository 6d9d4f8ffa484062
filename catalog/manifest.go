package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	SchemaVersionV1 uint32 = 1

	// catalogHashFunction is the fingerprint hash every stored URI names.
	catalogHashFunction = "sha-256"
)

// Manifest describes the on-disk catalog layout.
type Manifest struct {
	SchemaVersion uint32 `json:"schema_version"`
	HashFunction  string `json:"hash_function"`
}

func manifestPath(dir string) string {
	return filepath.Join(dir, "MANIFEST.json")
}

// loadOrInitManifest returns the catalog manifest, writing a fresh one on
// first open. An existing manifest is only read, never rewritten, and must
// describe a catalog this build can serve.
func loadOrInitManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(manifestPath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		m := &Manifest{SchemaVersion: SchemaVersionV1, HashFunction: catalogHashFunction}
		if err := writeManifestAtomic(dir, m); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("manifest json: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) check() error {
	switch {
	case m.SchemaVersion == 0:
		return errors.New("manifest schema_version missing")
	case m.SchemaVersion > SchemaVersionV1:
		return fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	case m.HashFunction != catalogHashFunction:
		return fmt.Errorf("manifest hash_function %q, catalog keys use %s", m.HashFunction, catalogHashFunction)
	}
	return nil
}

// writeManifestAtomic replaces the manifest through a synced temp file in
// dir, then syncs dir so the rename survives a crash.
func writeManifestAtomic(dir string, m *Manifest) (err error) {
	if m == nil {
		return errors.New("manifest: nil")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest json: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "MANIFEST-*.tmp")
	if err != nil {
		return fmt.Errorf("manifest temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("manifest write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("manifest fsync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("manifest close: %w", err)
	}
	if err = os.Rename(tmp.Name(), manifestPath(dir)); err != nil {
		return fmt.Errorf("manifest rename: %w", err)
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir) // #nosec G304 -- dir is the catalog directory under data_dir.
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	serr := d.Sync()
	cerr := d.Close()
	if serr != nil {
		return fmt.Errorf("fsync %s: %w", dir, serr)
	}
	return cerr
}
