// Package pipeline runs a scrape end to end and serializes its results.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/models"
	"github.com/aluiziolira/go-flashsale/parser"
)

// Fetcher walks the remote feed for one session.
type Fetcher interface {
	Fetch(ctx context.Context, rawCookies string) (*models.FetchResult, error)
}

// RunStore persists a run summary together with its products.
type RunStore interface {
	SaveRun(ctx context.Context, run models.Run, products []models.Product) error
}

// OutputWriter defines the interface for file output of a run.
type OutputWriter interface {
	Write(products []models.Product) error
	Close() error
	Validate() error
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithWriter also writes every run's products to w.
func WithWriter(w OutputWriter) Option {
	return func(p *Pipeline) { p.writer = w }
}

// WithClock overrides the time source used for scrape dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// Pipeline coordinates fetch, extraction and persistence for one scrape.
type Pipeline struct {
	fetcher Fetcher
	store   RunStore
	writer  OutputWriter
	log     logger.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// New builds a pipeline. A nil store skips persistence.
func New(fetcher Fetcher, store RunStore, log logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	p := &Pipeline{
		fetcher: fetcher,
		store:   store,
		log:     log.With(logger.String("component", "pipeline")),
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scrapes with rawCookies and stores the normalized products under a new
// run id. Fetch errors are returned unwrapped so callers can classify them.
func (p *Pipeline) Run(ctx context.Context, rawCookies string) (*models.RunReport, error) {
	result, err := p.fetcher.Fetch(ctx, rawCookies)
	if err != nil {
		return nil, err
	}

	scrapedAt := p.now().UTC()
	run := models.Run{
		ID:           p.newID(),
		RunDate:      scrapedAt,
		PagesScraped: result.PagesScraped,
		TimeTaken:    result.TimeTakenSeconds(),
	}
	products := parser.ExtractProducts(result.Items, run.ID, scrapedAt)
	run.ProductCount = len(products)

	if p.store != nil {
		if err := p.store.SaveRun(ctx, run, products); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	} else {
		p.log.Warn("no run store configured, products not persisted", logger.String("run_id", run.ID.String()))
	}

	if p.writer != nil {
		if err := p.writer.Write(products); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
	}

	p.log.Info("run saved",
		logger.String("run_id", run.ID.String()),
		logger.Int("products", run.ProductCount),
		logger.Int("pages", run.PagesScraped),
		logger.Int("time_taken", run.TimeTaken),
	)

	return &models.RunReport{
		RunID:         run.ID,
		TotalProducts: run.ProductCount,
		PagesScraped:  run.PagesScraped,
		TimeTaken:     run.TimeTaken,
	}, nil
}
