package types

type (
	// PathFilterConfig contains configuration for the listing filter.
	PathFilterConfig struct {
		IgnoredPatterns   []string `json:"ignoredPatterns" yaml:"ignoredPatterns"`
		AllowedExtensions []string `json:"allowedExtensions" yaml:"allowedExtensions"`
	}
)
