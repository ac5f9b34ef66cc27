package navigation

import (
	"context"
	"time"

	"github.com/taigrr/aslm/internal/types"
)

// FileSystemProvider enumerates a directory.
type FileSystemProvider interface {
	ListFiles(ctx context.Context, path string) ([]types.FileEntry, error)
}

// MetadataProvider looks up the product registered at exactly path. A nil
// context with a nil error means path is not a product.
type MetadataProvider interface {
	GetProductByPath(ctx context.Context, path string) (*types.DirectoryContext, error)
}

// Recorder receives one observation per finished navigation request.
type Recorder interface {
	ObserveNavigation(outcome string, d time.Duration)
}

type noMetadata struct{}

func (noMetadata) GetProductByPath(context.Context, string) (*types.DirectoryContext, error) {
	return nil, nil
}

type noRecorder struct{}

func (noRecorder) ObserveNavigation(string, time.Duration) {}
