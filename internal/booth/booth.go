// Package booth looks up product details on the Booth marketplace.
//
// Search finds the first listing matching a folder name; ProductInfo reads
// the image and shop name from a product page. The HTML parsing is exposed
// separately so callers can work from pages they already have.
package booth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/taigrr/aslm/internal/source"
	"github.com/taigrr/aslm/internal/types"
)

const (
	defaultSearchURL = "https://booth.pm/ja/search/"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxPageSize      = 4 << 20
)

var (
	// ErrNoResults is returned when a search page lists no products.
	ErrNoResults = errors.New("no products found")

	// ErrInvalidURL is returned for a URL that is not a Booth product page.
	ErrInvalidURL = errors.New("not a Booth product URL")
)

var (
	bracketRe  = regexp.MustCompile(`[\[\]【】\(\)（）]`)
	versionRe  = regexp.MustCompile(`(?i)_?v(er)?\.?\d+(\.\d+)*`)
	spaceRe    = regexp.MustCompile(`\s+`)
	itemURLRe  = regexp.MustCompile(`https://[a-zA-Z0-9_-]+\.booth\.pm/items/\d+`)
	imageURLRe = regexp.MustCompile(`https://booth\.pximg\.net/[a-zA-Z0-9/._-]+\.(?:jpg|jpeg|png|webp)`)
	thumbRe    = regexp.MustCompile(`/c/\d+x\d+_[a-z0-9]+/`)

	noiseWords = compileWords("booth", "gumroad", "avatar", "アバター", "unity", "vrc", "vrchat")
)

func compileWords(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

// Info is the product metadata found on Booth.
type Info struct {
	ProductURL string `json:"productUrl"`
	ImageURL   string `json:"imageUrl,omitempty"`
	ShopName   string `json:"shopName,omitempty"`
}

// Client fetches Booth pages.
type Client struct {
	httpClient *http.Client
	searchURL  string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSearchURL sets the search endpoint; the query is appended to it.
func WithSearchURL(u string) Option {
	return func(c *Client) { c.searchURL = u }
}

// New creates a Client with a 10 second request timeout.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		searchURL:  defaultSearchURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractSearchQuery turns a folder name into a search query by dropping
// brackets, version suffixes, store and platform words, and underscores.
func ExtractSearchQuery(folderName string) string {
	cleaned := bracketRe.ReplaceAllString(folderName, " ")
	cleaned = versionRe.ReplaceAllString(cleaned, " ")
	for _, re := range noiseWords {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// IsProductURL reports whether u points at a Booth item page.
func IsProductURL(u string) bool {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		return false
	}
	if source.Detect(u) != types.SourceBooth {
		return false
	}
	return strings.Contains(parsed.Path, "/items/")
}

// Search returns the first product listed for folderName.
func (c *Client) Search(ctx context.Context, folderName string) (*Info, error) {
	query := ExtractSearchQuery(folderName)
	if query == "" {
		query = strings.TrimSpace(folderName)
	}
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	page, err := c.fetch(ctx, c.searchURL+url.PathEscape(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search booth: %s - %w", query, err)
	}

	info, err := ParseSearchResults(page)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return info, nil
}

// ProductInfo reads the image and shop name from a product page.
func (c *Client) ProductInfo(ctx context.Context, productURL string) (*Info, error) {
	productURL = strings.TrimSpace(productURL)
	if !IsProductURL(productURL) {
		return nil, fmt.Errorf("%s: %w", productURL, ErrInvalidURL)
	}

	page, err := c.fetch(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %s - %w", productURL, err)
	}
	return ParseProductPage(productURL, strings.NewReader(page))
}

func (c *Client) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ParseSearchResults picks the first product and thumbnail from a search
// results page. Thumbnail size segments are removed from the image URL.
func ParseSearchResults(page string) (*Info, error) {
	productURL := itemURLRe.FindString(page)
	if productURL == "" {
		return nil, ErrNoResults
	}

	info := &Info{
		ProductURL: productURL,
		ShopName:   source.ShopName(productURL),
	}
	if img := imageURLRe.FindString(page); img != "" {
		info.ImageURL = thumbRe.ReplaceAllString(img, "/")
	}
	return info, nil
}

// ParseProductPage reads a product page. The image comes from the main item
// image block, falling back to og:image; the shop name comes from the author
// meta tag, falling back to the shop subdomain of productURL.
func ParseProductPage(productURL string, r io.Reader) (*Info, error) {
	var (
		author, ogImage, itemImage string
		inItemImage                bool
	)

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to parse product page: %w", err)
			}
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		tok := z.Token()
		switch tok.Data {
		case "meta":
			switch {
			case attr(tok, "name") == "author" && author == "":
				author = strings.TrimSpace(attr(tok, "content"))
			case attr(tok, "property") == "og:image" && ogImage == "":
				ogImage = strings.TrimSpace(attr(tok, "content"))
			}
		case "img":
			if inItemImage && itemImage == "" {
				itemImage = attr(tok, "data-src")
				if itemImage == "" {
					itemImage = attr(tok, "src")
				}
			}
		}
		if strings.Contains(attr(tok, "class"), "market-item-detail-item-image") {
			inItemImage = true
		}
	}

	info := &Info{
		ProductURL: productURL,
		ImageURL:   itemImage,
		ShopName:   author,
	}
	if info.ImageURL == "" {
		info.ImageURL = ogImage
	}
	if info.ShopName == "" {
		info.ShopName = source.ShopName(productURL)
	}
	return info, nil
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
