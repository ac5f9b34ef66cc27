// Package pathnorm segments, joins and compares directory paths that may use
// either '/' or '\' as separator and compare case-insensitively.
package pathnorm

import (
	"errors"
	"strings"
)

// ErrNoParent is returned by Parent for a root path.
var ErrNoParent = errors.New("path has no parent")

// Separator returns the separator style used by path: '/' when present,
// otherwise '\' when present, otherwise '/'.
func Separator(path string) string {
	if strings.Contains(path, "/") {
		return "/"
	}
	if strings.Contains(path, `\`) {
		return `\`
	}
	return "/"
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// Segments splits path on its separators. A single trailing empty segment
// caused by a trailing separator is dropped; a leading empty segment (an
// absolute unix path) is kept.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	parts := splitSeparators(path)
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func splitSeparators(path string) []string {
	var parts []string
	start := 0
	for i, r := range path {
		if isSeparator(r) {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}

// Parent returns the directory containing path, in directory form (with a
// trailing separator) so that a bare drive comes back as a usable root:
// Parent("C:/UnityAssets/Foo") is "C:/UnityAssets/" and Parent("C:/Foo")
// is "C:/".
func Parent(path string) (string, error) {
	segs := Segments(path)
	if len(segs) <= 1 {
		return "", ErrNoParent
	}
	sep := Separator(path)
	return strings.Join(segs[:len(segs)-1], sep) + sep, nil
}

// IsRoot reports whether path has no parent.
func IsRoot(path string) bool {
	return len(Segments(path)) <= 1
}

// Normalize trims surrounding whitespace and trailing separators. Roots keep
// one trailing separator and a bare drive letter gains one ("C:" is "C:/").
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	sep := Separator(path)
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return sep
	}
	if !strings.ContainsAny(trimmed, `/\`) && strings.HasSuffix(trimmed, ":") {
		return trimmed + sep
	}
	return trimmed
}

// Join appends name to dir using dir's separator.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	sep := Separator(dir)
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + sep + name
}

// Base returns the last segment of path, or "" for an empty path.
func Base(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Key folds path into its comparison form: forward slashes, lower case, no
// trailing separator. Two paths naming the same directory share a key.
func Key(path string) string {
	p := strings.ReplaceAll(strings.TrimSpace(path), `\`, "/")
	return strings.ToLower(strings.TrimRight(p, "/"))
}

// Equal reports whether a and b name the same directory.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// IsAncestorOrEqual reports whether target is ancestor itself or lies
// beneath it, ignoring case and separator style on both sides.
func IsAncestorOrEqual(ancestor, target string) bool {
	a, t := Key(ancestor), Key(target)
	return t == a || strings.HasPrefix(t, a+"/")
}
