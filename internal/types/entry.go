// Package types defines the data structures shared across the navigator.
package types

import "fmt"

// Kind distinguishes files from folders in a directory listing.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Source tags where a product was bought. The zero value means unknown.
type Source string

const (
	SourceNone    Source = ""
	SourceBooth   Source = "booth"
	SourceGumroad Source = "gumroad"
)

// ParseSource validates a provenance tag. An empty string is SourceNone.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceNone, SourceBooth, SourceGumroad:
		return Source(s), nil
	default:
		return "", fmt.Errorf("unknown source: %q", s)
	}
}

type (
	// FileEntry is one row of a directory listing.
	FileEntry struct {
		Name     string   `json:"name"`
		Kind     Kind     `json:"kind"`
		Path     string   `json:"path"`
		Source   Source   `json:"source,omitempty"`
		URL      string   `json:"url,omitempty"`
		ImageURL string   `json:"imageUrl,omitempty"`
		Tags     []string `json:"tags,omitempty"`
	}

	// DirectoryContext describes a directory recognized as a product package.
	DirectoryContext struct {
		Path     string   `json:"path"`
		Name     string   `json:"name"`
		URL      string   `json:"url,omitempty"`
		ImageURL string   `json:"imageUrl,omitempty"`
		ShopName string   `json:"shopName,omitempty"`
		Tags     []string `json:"tags,omitempty"`
	}
)

// IsFolder reports whether the entry is a folder.
func (e FileEntry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Clone returns a copy that shares no slices with e.
func (e FileEntry) Clone() FileEntry {
	e.Tags = cloneStrings(e.Tags)
	return e
}

// Clone returns a copy of the context, or nil for a nil receiver.
func (c *DirectoryContext) Clone() *DirectoryContext {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Tags = cloneStrings(c.Tags)
	return &cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
