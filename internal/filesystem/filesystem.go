// Package filesystem lists directories of the asset library on the local
// file system.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/taigrr/aslm/internal/catalog"
	"github.com/taigrr/aslm/internal/pathfilter"
	"github.com/taigrr/aslm/internal/pathnorm"
	"github.com/taigrr/aslm/internal/source"
	"github.com/taigrr/aslm/internal/types"
)

// ProductIndex is the part of the catalog the listing needs.
type ProductIndex interface {
	Get(path string) (catalog.Product, bool)
	Register(path, name string) error
}

// Service lists directories and decorates entries with product metadata.
type Service struct {
	pathFilter   *pathfilter.PathFilter
	products     ProductIndex
	autoRegister bool
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAutoRegister registers every listed folder that is not already inside
// a product as a new product.
func WithAutoRegister(enabled bool) Option {
	return func(s *Service) { s.autoRegister = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new Service. products may be nil.
func New(pf *pathfilter.PathFilter, products ProductIndex, opts ...Option) *Service {
	if pf == nil {
		pf = pathfilter.New(nil)
	}
	s := &Service{
		pathFilter: pf,
		products:   products,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListFiles lists the folders and files in path, folders first, each group
// sorted by name ignoring case.
func (s *Service) ListFiles(ctx context.Context, path string) ([]types.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty directory path")
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory not found: %s - %w", path, err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("permission denied: %s - %w", path, err)
		}
		return nil, fmt.Errorf("failed to list directory: %s - %w", path, err)
	}

	var folders, files []types.FileEntry

	for _, entry := range entries {
		name := entry.Name()
		isDir := entry.IsDir()
		if !isDir && !entry.Type().IsRegular() {
			continue
		}
		if !s.pathFilter.IsAllowed(name, isDir) {
			continue
		}

		item := types.FileEntry{
			Name: name,
			Kind: types.KindFile,
			Path: pathnorm.Join(path, name),
		}
		if isDir {
			item.Kind = types.KindFolder
			if s.autoRegister {
				s.register(item.Path, name)
			}
		}
		s.decorate(&item)

		if item.IsFolder() {
			folders = append(folders, item)
		} else {
			files = append(files, item)
		}
	}

	sortByName(folders)
	sortByName(files)

	return append(folders, files...), nil
}

func (s *Service) register(path, name string) {
	if s.products == nil {
		return
	}
	err := s.products.Register(path, name)
	if err != nil && !errors.Is(err, catalog.ErrInsideProduct) {
		s.logger.Debug("auto-register failed", zap.String("path", path), zap.Error(err))
	}
}

func (s *Service) decorate(item *types.FileEntry) {
	if s.products == nil {
		return
	}
	p, ok := s.products.Get(item.Path)
	if !ok {
		return
	}
	item.URL = p.URL
	item.ImageURL = p.ImageURL
	item.Tags = p.Tags
	item.Source = source.Detect(p.URL)
}

func sortByName(items []types.FileEntry) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}
