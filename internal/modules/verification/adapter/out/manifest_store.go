package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"streakd/internal/modules/verification/domain"
	verificationout "streakd/internal/modules/verification/port/out"
)

// FileManifestStore prefers <data>/plugins/verifier.json and falls back to the
// manifest assembled from configuration.
type FileManifestStore struct {
	basePath string
	path     string
	fallback domain.Manifest
}

func NewFileManifestStore(basePath string, fallback domain.Manifest) verificationout.ManifestSource {
	return &FileManifestStore{
		basePath: basePath,
		path:     filepath.Join(basePath, "plugins", "verifier.json"),
		fallback: fallback,
	}
}

func (s *FileManifestStore) Load(_ context.Context) (domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.fallback, nil
		}
		return domain.Manifest{}, fmt.Errorf("read verifier manifest: %w", err)
	}
	var manifest domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("decode verifier manifest: %w", err)
	}
	if manifest.Binary != "" && !filepath.IsAbs(manifest.Binary) {
		manifest.Binary = filepath.Clean(filepath.Join(s.basePath, manifest.Binary))
	}
	return manifest, nil
}
