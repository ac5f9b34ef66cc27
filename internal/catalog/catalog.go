// Package catalog keeps the registry of product directories in a YAML file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/aslm/internal/pathnorm"
	"github.com/taigrr/aslm/internal/types"
)

var (
	// ErrNotFound is returned for a path with no registered product.
	ErrNotFound = errors.New("product not found")

	// ErrInsideProduct is returned when registering beneath an existing product.
	ErrInsideProduct = errors.New("path is inside an existing product")
)

// Product is one registered product directory.
type Product struct {
	Path     string   `yaml:"path"`
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url,omitempty"`
	ImageURL string   `yaml:"imageUrl,omitempty"`
	ShopName string   `yaml:"shopName,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// Context converts p into the navigation context it describes.
func (p Product) Context() *types.DirectoryContext {
	dc := &types.DirectoryContext{
		Path:     p.Path,
		Name:     p.Name,
		URL:      p.URL,
		ImageURL: p.ImageURL,
		ShopName: p.ShopName,
		Tags:     p.Tags,
	}
	return dc.Clone()
}

// Update holds the editable details of a product.
type Update struct {
	URL      string
	ImageURL string
	ShopName string
	Tags     []string
}

type file struct {
	Products []Product `yaml:"products"`
}

// Catalog is a product registry persisted to a YAML file. Paths are matched
// ignoring case and separator style. Every mutation is written to disk
// before it returns.
type Catalog struct {
	path string

	mu       sync.RWMutex
	products map[string]Product
}

// Open loads the catalog at path. A missing file yields an empty catalog.
func Open(path string) (*Catalog, error) {
	c := &Catalog{
		path:     path,
		products: make(map[string]Product),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %s - %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %s - %w", path, err)
	}
	for _, p := range f.Products {
		if strings.TrimSpace(p.Path) == "" {
			continue
		}
		p.Path = pathnorm.Normalize(p.Path)
		c.products[pathnorm.Key(p.Path)] = p
	}
	return c, nil
}

// Path returns the backing file path.
func (c *Catalog) Path() string {
	return c.path
}

// Register adds a product at path named name. Registering an existing
// product is a no-op. Paths beneath another product are refused.
func (c *Catalog) Register(path, name string) error {
	path = pathnorm.Normalize(path)
	if path == "" {
		return fmt.Errorf("cannot register product: empty path")
	}
	if name == "" {
		name = pathnorm.Base(path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := pathnorm.Key(path)
	if _, ok := c.products[key]; ok {
		return nil
	}
	if parent, ok := c.parentLocked(path); ok {
		return fmt.Errorf("cannot register %s: parent=%s: %w", path, parent.Path, ErrInsideProduct)
	}

	c.products[key] = Product{Path: path, Name: name}
	if err := c.saveLocked(); err != nil {
		delete(c.products, key)
		return err
	}
	return nil
}

// Update replaces the details of the product at path. Blank tags are dropped.
func (c *Catalog) Update(path string, u Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := pathnorm.Key(path)
	prev, ok := c.products[key]
	if !ok {
		return fmt.Errorf("cannot update %s: %w", path, ErrNotFound)
	}

	next := prev
	next.URL = u.URL
	next.ImageURL = u.ImageURL
	next.ShopName = u.ShopName
	next.Tags = nil
	for _, tag := range u.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		next.Tags = append(next.Tags, tag)
	}

	c.products[key] = next
	if err := c.saveLocked(); err != nil {
		c.products[key] = prev
		return err
	}
	return nil
}

// Remove deletes the product at path.
func (c *Catalog) Remove(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := pathnorm.Key(path)
	prev, ok := c.products[key]
	if !ok {
		return fmt.Errorf("cannot remove %s: %w", path, ErrNotFound)
	}
	delete(c.products, key)
	if err := c.saveLocked(); err != nil {
		c.products[key] = prev
		return err
	}
	return nil
}

// Get returns the product registered at exactly path.
func (c *Catalog) Get(path string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[pathnorm.Key(path)]
	return cloneProduct(p), ok
}

// Parent returns the nearest product strictly above path.
func (c *Catalog) Parent(path string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.parentLocked(path)
	return cloneProduct(p), ok
}

func (c *Catalog) parentLocked(path string) (Product, bool) {
	current := path
	for {
		parent, err := pathnorm.Parent(current)
		if err != nil {
			return Product{}, false
		}
		if p, ok := c.products[pathnorm.Key(parent)]; ok {
			return p, true
		}
		current = parent
	}
}

// List returns all products sorted by path.
func (c *Catalog) List() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return pathnorm.Key(out[i].Path) < pathnorm.Key(out[j].Path)
	})
	return out
}

// GetProductByPath returns the context of the product registered at exactly
// path, or nil when path is not a product.
func (c *Catalog) GetProductByPath(ctx context.Context, path string) (*types.DirectoryContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := c.Get(path)
	if !ok {
		return nil, nil
	}
	return p.Context(), nil
}

func (c *Catalog) saveLocked() error {
	f := file{Products: make([]Product, 0, len(c.products))}
	for _, p := range c.products {
		f.Products = append(f.Products, p)
	}
	sort.Slice(f.Products, func(i, j int) bool {
		return pathnorm.Key(f.Products[i].Path) < pathnorm.Key(f.Products[j].Path)
	})

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %s - %w", c.path, err)
	}
	return nil
}

func cloneProduct(p Product) Product {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}
