package viwanda

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"cropprice-harvester/models"
	"cropprice-harvester/utils"
)

var pageRegexp = regexp.MustCompile(`\?page=(\d+)`)

// NextPage returns the smallest page number referenced by hrefs that is
// strictly greater than current.
func NextPage(current int, hrefs []string) (int, bool) {
	next, found := 0, false
	for _, href := range hrefs {
		m := pageRegexp.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= current {
			continue
		}
		if !found || n < next {
			next, found = n, true
		}
	}
	return next, found
}

// Paginator walks the listing pages {base}?page=N from the start page up to
// the last page reachable through in-page navigation links.
type Paginator struct {
	baseURL string
	start   int
	current int
	// total is the last page number; 0 until computed.
	total  int
	links  LinkSource
	logger *utils.Logger

	// hrefs seen while computing the boundary, by page number.
	cache map[int][]string
}

// NewPaginator creates a Paginator. A start page below 1 is treated as 1.
func NewPaginator(baseURL string, start int, links LinkSource, logger *utils.Logger) *Paginator {
	if start < 1 {
		start = 1
	}
	return &Paginator{
		baseURL: baseURL,
		start:   start,
		current: start,
		links:   links,
		logger:  logger,
		cache:   make(map[int][]string),
	}
}

// PageURL returns the listing URL of page n.
func (p *Paginator) PageURL(n int) string {
	return fmt.Sprintf("%s?page=%d", p.baseURL, n)
}

// ComputeTotalPages follows next-page links from the current page until a
// page offers none, and records that page as the boundary. Each transition
// costs one fetch.
func (p *Paginator) ComputeTotalPages(ctx context.Context) (int, error) {
	page := p.current
	for {
		hrefs, err := p.links.Links(ctx, p.PageURL(page))
		if err != nil {
			return 0, fmt.Errorf("paginator: page %d: %w", page, err)
		}
		p.cache[page] = hrefs

		next, ok := NextPage(page, hrefs)
		if !ok {
			break
		}
		page = next
	}
	p.total = page
	p.logger.Info("[paginator] Listing ends at page %d", p.total)
	return p.total, nil
}

// Reset moves the cursor back to the start page. The boundary stays cached.
func (p *Paginator) Reset() {
	p.current = p.start
}

// Next returns the next listing page, or false once the boundary is passed.
// The boundary is computed on the first call.
func (p *Paginator) Next(ctx context.Context) (models.ListingPage, bool, error) {
	if p.total == 0 {
		if _, err := p.ComputeTotalPages(ctx); err != nil {
			return models.ListingPage{}, false, err
		}
	}
	if p.current > p.total {
		return models.ListingPage{}, false, nil
	}

	page := models.ListingPage{Number: p.current, URL: p.PageURL(p.current)}
	p.current++
	return page, true, nil
}

// Links returns the anchors of a listing page, reusing the fetch made while
// computing the boundary when there was one.
func (p *Paginator) Links(ctx context.Context, page models.ListingPage) ([]string, error) {
	if hrefs, ok := p.cache[page.Number]; ok {
		delete(p.cache, page.Number)
		return hrefs, nil
	}
	hrefs, err := p.links.Links(ctx, page.URL)
	if err != nil {
		return nil, fmt.Errorf("paginator: page %d: %w", page.Number, err)
	}
	return hrefs, nil
}
