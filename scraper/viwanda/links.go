package viwanda

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"cropprice-harvester/models"
)

// LinkSource returns the raw href of every anchor on a listing page.
type LinkSource interface {
	Links(ctx context.Context, pageURL string) ([]string, error)
}

// HTTPLinkSource reads listing pages with a plain GET.
type HTTPLinkSource struct {
	client *HTTPClient
}

// NewHTTPLinkSource creates a LinkSource backed by client.
func NewHTTPLinkSource(client *HTTPClient) *HTTPLinkSource {
	return &HTTPLinkSource{client: client}
}

func (s *HTTPLinkSource) Links(ctx context.Context, pageURL string) ([]string, error) {
	body, contentType, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	hrefs, err := ExtractLinks(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, pageURL, err)
	}
	return hrefs, nil
}

// ExtractLinks decodes an HTML page to UTF-8 and returns the href attribute
// of every anchor, in document order.
func ExtractLinks(r io.Reader, contentType string) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, err
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs, nil
}

// documentPrefix is the language tag bulletins are published under.
const documentPrefix = "sw"

// LinkFilter keeps the hrefs that point at wholesale price bulletins.
type LinkFilter struct {
	pattern *regexp.Regexp
}

// NewLinkFilter creates a LinkFilter accepting bulletins hosted under host
// (scheme://host, no trailing slash).
func NewLinkFilter(host string) *LinkFilter {
	host = strings.TrimRight(host, "/")
	return &LinkFilter{
		pattern: regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(host) + `/uploads/documents/)(` +
			documentPrefix + `-\d{10}-Wholesale.+?\.pdf)`),
	}
}

// Filter splits every matching href into its directory prefix and filename.
// Order is preserved and duplicates are kept.
func (f *LinkFilter) Filter(hrefs []string) []models.DocumentRef {
	var refs []models.DocumentRef
	for _, href := range hrefs {
		m := f.pattern.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		refs = append(refs, models.DocumentRef{Prefix: m[1], Filename: m[2]})
	}
	return refs
}
