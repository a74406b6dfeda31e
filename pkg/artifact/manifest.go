// pkg/artifact/manifest.go
package artifact

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/zeebo/blake3"
)

// ManifestVersion tags the manifest layout
const ManifestVersion = "manifest.v1"

// Manifest lists the files produced by one run with their checksums
type Manifest struct {
	Version   string       `json:"version"`
	RunID     string       `json:"run_id"`
	CreatedAt time.Time    `json:"created_at"`
	Files     []FileDigest `json:"files"`
}

// FileDigest is the size and BLAKE3 checksum of one file
type FileDigest struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	BLAKE3 string `json:"blake3"`
}

// MismatchError reports a file whose current content differs from the manifest
type MismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: manifest %s, file %s", e.Path, e.Expected, e.Actual)
}

// BuildManifest digests each path
func BuildManifest(runID string, paths ...string) (Manifest, error) {
	m := Manifest{
		Version:   ManifestVersion,
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
	}
	for _, path := range paths {
		d, err := DigestFile(path)
		if err != nil {
			return Manifest{}, err
		}
		m.Files = append(m.Files, d)
	}
	return m, nil
}

// DigestFile computes the BLAKE3 checksum of a file
func DigestFile(path string) (FileDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileDigest{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return FileDigest{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return FileDigest{
		Path:   path,
		Size:   n,
		BLAKE3: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Verify re-digests every file and reports the first mismatch
func (m Manifest) Verify() error {
	for _, want := range m.Files {
		got, err := DigestFile(want.Path)
		if err != nil {
			return err
		}
		if got.BLAKE3 != want.BLAKE3 {
			return &MismatchError{Path: want.Path, Expected: want.BLAKE3, Actual: got.BLAKE3}
		}
	}
	return nil
}

// Digest returns the entry for path, if listed
func (m Manifest) Digest(path string) (FileDigest, bool) {
	for _, d := range m.Files {
		if d.Path == path {
			return d, true
		}
	}
	return FileDigest{}, false
}

// SaveManifest writes m atomically as indented JSON
func SaveManifest(path string, m Manifest) error {
	return SaveJSON(path, m)
}

// LoadManifest reads a manifest written by SaveManifest
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if err := LoadJSON(path, &m); err != nil {
		return Manifest{}, err
	}
	if m.Version != ManifestVersion {
		return Manifest{}, fmt.Errorf("manifest version %q not supported (want %s)", m.Version, ManifestVersion)
	}
	return m, nil
}

// SaveJSON writes v atomically as indented JSON
func SaveJSON(path string, v interface{}) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// LoadJSON decodes the JSON file at path into v
func LoadJSON(path string, v interface{}) error {
	return ReadFile(path, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	})
}
