// Package source infers where a product was bought from its store URL.
package source

import (
	"net/url"
	"strings"

	"github.com/taigrr/aslm/internal/types"
)

// Detect returns the store a product URL points at.
func Detect(productURL string) types.Source {
	host := hostname(productURL)
	switch {
	case host == "":
		return types.SourceNone
	case host == "booth.pm" || strings.HasSuffix(host, ".booth.pm"):
		return types.SourceBooth
	case host == "gumroad.com" || strings.HasSuffix(host, ".gumroad.com"):
		return types.SourceGumroad
	default:
		return types.SourceNone
	}
}

// ShopName returns the shop subdomain of a store URL, e.g. "shop" for
// https://shop.booth.pm/items/1. The bare store host and "www" yield "".
func ShopName(productURL string) string {
	parts := strings.Split(hostname(productURL), ".")
	if len(parts) < 3 || parts[0] == "www" {
		return ""
	}
	return parts[0]
}

func hostname(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
