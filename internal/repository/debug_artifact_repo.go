package repository

import "context"

// DebugArtifactRepository stores the markup of pages whose results never appeared.
type DebugArtifactRepository interface {
	// Save writes the markup for page and returns where it was written.
	Save(ctx context.Context, page int, markup string) (string, error)
}
