// Package pathfilter hides noise entries from directory listings.
package pathfilter

import (
	"regexp"
	"strings"

	"github.com/taigrr/aslm/internal/types"
)

// PathFilter filters listing entries by name and file extension.
type PathFilter struct {
	ignoredPatterns   []*regexp.Regexp
	allowedExtensions []string
}

var defaultIgnoredPatterns = []string{
	".git",
	"Thumbs.db",
	"desktop.ini",
	".DS_Store",
	"$RECYCLE.BIN",
	"System Volume Information",
	"~$*",
}

// New creates a new PathFilter with the given configuration. With no
// allowed extensions every file passes the extension check.
func New(config *types.PathFilterConfig) *PathFilter {
	patterns := defaultIgnoredPatterns
	var extensions []string
	if config != nil {
		patterns = append(append([]string(nil), patterns...), config.IgnoredPatterns...)
		for _, ext := range config.AllowedExtensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			extensions = append(extensions, ext)
		}
	}

	pf := &PathFilter{allowedExtensions: extensions}
	for _, p := range patterns {
		if re, err := compileGlob(p); err == nil {
			pf.ignoredPatterns = append(pf.ignoredPatterns, re)
		}
	}
	return pf
}

// compileGlob converts a glob pattern to a case-insensitive regex.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	// Normalize pattern path separators (Windows compatibility)
	normalizedPattern := strings.ReplaceAll(pattern, "\\", "/")

	// Escape all regex special chars first
	regexPattern := regexp.QuoteMeta(normalizedPattern)

	// Convert glob patterns (unescape the escaped versions)
	regexPattern = strings.ReplaceAll(regexPattern, `\*\*`, ".*")  // ** matches any
	regexPattern = strings.ReplaceAll(regexPattern, `\*`, "[^/]*") // * matches non-slash
	regexPattern = strings.ReplaceAll(regexPattern, `\?`, "[^/]")  // ? matches single char

	return regexp.Compile("(?i)^" + regexPattern + "$")
}

// IsAllowed reports whether an entry named name should be listed.
func (pf *PathFilter) IsAllowed(name string, isDir bool) bool {
	normalized := strings.ReplaceAll(name, "\\", "/")
	if normalized == "" {
		return false
	}

	for _, re := range pf.ignoredPatterns {
		if re.MatchString(normalized) {
			return false
		}
	}

	if isDir || len(pf.allowedExtensions) == 0 {
		return true
	}

	lower := strings.ToLower(normalized)
	for _, ext := range pf.allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
