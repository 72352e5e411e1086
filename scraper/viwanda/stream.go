package viwanda

import (
	"context"
	"fmt"
	"io"

	"cropprice-harvester/models"
	"cropprice-harvester/utils"
)

// DocumentFetcher stages a document for the duration of fn.
type DocumentFetcher interface {
	WithDocument(ctx context.Context, url string, fn func(path string) error) error
}

// DocumentParser turns a staged bulletin into a table. filename is the name
// the bulletin was published under.
type DocumentParser interface {
	ParseDocument(path, filename string) (*models.NormalizedTable, error)
}

// StreamConfig wires a Stream's collaborators.
type StreamConfig struct {
	Paginator *Paginator
	Filter    *LinkFilter
	Fetcher   DocumentFetcher
	Parser    DocumentParser

	// MaxConcurrency above 1 harvests the documents of a page in parallel.
	MaxConcurrency int
	RateLimitMs    int

	Logger  *utils.Logger
	Metrics *utils.Metrics
}

// pending is one bulletin of the current page awaiting delivery.
type pending struct {
	ref models.DocumentRef
	url string

	done bool
	doc  *models.HarvestedDocument
	err  error
}

// Stream is a pull-based walk over pages, then bulletin links, then
// bulletins. Each Next call yields one harvested bulletin; io.EOF marks the
// end of the listing.
type Stream struct {
	cfg  StreamConfig
	skip *utils.URLSet

	queue  []*pending
	cursor int
	err    error
	stats  models.StreamStats
}

// NewStream creates a Stream that never fetches a URL contained in skip.
func NewStream(cfg StreamConfig, skip *utils.URLSet) *Stream {
	if cfg.Metrics == nil {
		cfg.Metrics = utils.NewMetrics()
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &Stream{cfg: cfg, skip: skip}
}

// Next returns the next harvested bulletin. After an error or io.EOF, every
// further call returns the same error.
func (s *Stream) Next(ctx context.Context) (*models.HarvestedDocument, error) {
	if s.err != nil {
		return nil, s.err
	}

	for s.cursor >= len(s.queue) {
		if err := s.loadPage(ctx); err != nil {
			s.err = err
			return nil, err
		}
	}

	p := s.queue[s.cursor]
	s.cursor++
	if !p.done {
		p.doc, p.err = s.harvest(ctx, p)
		p.done = true
	}
	if p.err != nil {
		s.err = p.err
		return nil, p.err
	}
	return p.doc, nil
}

// Stats reports what the stream has walked so far.
func (s *Stream) Stats() models.StreamStats {
	return s.stats
}

// loadPage advances to the next listing page and queues its bulletins that
// are not in the skip set. It returns io.EOF past the last page.
func (s *Stream) loadPage(ctx context.Context) error {
	page, ok, err := s.cfg.Paginator.Next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}

	hrefs, err := s.cfg.Paginator.Links(ctx, page)
	if err != nil {
		return err
	}
	s.stats.Pages++
	s.cfg.Metrics.PagesVisited.Inc()

	refs := s.cfg.Filter.Filter(hrefs)
	s.cfg.Logger.Info("[stream] Page %d: %d bulletins", page.Number, len(refs))

	s.queue = s.queue[:0]
	s.cursor = 0
	for _, ref := range refs {
		s.stats.Seen++
		url := ref.URL()
		if s.skip.Contains(url) {
			s.stats.Skipped++
			s.cfg.Logger.Info("[stream] URL %s already downloaded, skipping", url)
			continue
		}
		s.queue = append(s.queue, &pending{ref: ref, url: url})
	}

	if s.cfg.MaxConcurrency > 1 && len(s.queue) > 1 {
		s.prefetch(ctx)
	}
	return nil
}

// prefetch harvests every queued bulletin of the page on a worker pool.
// Results are still handed out in discovery order by Next.
func (s *Stream) prefetch(ctx context.Context) {
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	for _, p := range s.queue {
		p := p
		pool.Submit(func() {
			p.doc, p.err = s.harvest(ctx, p)
			p.done = true
		})
	}
	pool.Wait()
}

func (s *Stream) harvest(ctx context.Context, p *pending) (*models.HarvestedDocument, error) {
	var table *models.NormalizedTable
	err := s.cfg.Fetcher.WithDocument(ctx, p.url, func(path string) error {
		t, err := s.cfg.Parser.ParseDocument(path, p.ref.Filename)
		table = t
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("harvest %s: %w", p.url, err)
	}
	return &models.HarvestedDocument{SourceURL: p.url, Filename: p.ref.Filename, Table: table}, nil
}
