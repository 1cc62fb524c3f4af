package filesystem

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/user/card-scraper/internal/repository"
)

// DebugArtifactRepoImpl writes page markup as debug_page_{N}.html under a directory.
type DebugArtifactRepoImpl struct {
	fs  afero.Fs
	dir string
}

var _ repository.DebugArtifactRepository = (*DebugArtifactRepoImpl)(nil)

// NewDebugArtifactRepo creates a new instance of DebugArtifactRepoImpl.
func NewDebugArtifactRepo(fs afero.Fs, dir string) *DebugArtifactRepoImpl {
	if dir == "" {
		dir = "."
	}
	return &DebugArtifactRepoImpl{fs: fs, dir: dir}
}

// Save writes markup (UTF-8) for page, replacing an older artifact for the same page.
func (r *DebugArtifactRepoImpl) Save(_ context.Context, page int, markup string) (string, error) {
	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create debug directory: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("debug_page_%d.html", page))
	if err := afero.WriteFile(r.fs, path, []byte(markup), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
