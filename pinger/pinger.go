// Package pinger calls a fixed list of webhook URLs on a cron schedule.
package pinger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron/v3"

	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/models"
)

// ErrAlreadyStarted is returned by Start on a running pinger.
var ErrAlreadyStarted = errors.New("pinger already started")

// Pinger pings every configured target on each schedule tick. Failed pings
// are logged and counted; the next tick tries again.
type Pinger struct {
	cfg     config.PingerConfig
	client  *resty.Client
	cron    *cron.Cron
	log     logger.Logger
	Metrics *Metrics
	now     func() time.Time

	mu      sync.RWMutex
	results map[string]models.PingResult
	started bool
}

// Option configures a Pinger.
type Option func(*Pinger)

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Pinger) {
		p.client.SetTransport(rt)
	}
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(p *Pinger) {
		p.now = now
	}
}

// New validates cfg and builds a Pinger. It does not start the schedule.
func New(cfg config.PingerConfig, log logger.Logger, opts ...Option) (*Pinger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	p := &Pinger{
		cfg:     cfg,
		client:  client,
		cron:    cron.New(),
		log:     log,
		Metrics: NewMetrics(),
		now:     time.Now,
		results: make(map[string]models.PingResult, len(cfg.Targets)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start registers the schedule and starts the cron runner. Ticks use ctx,
// so cancelling it aborts in-flight pings.
func (p *Pinger) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyStarted
	}

	if _, err := p.cron.AddFunc(p.cfg.Schedule, func() { p.PingAll(ctx) }); err != nil {
		return fmt.Errorf("invalid pinger schedule %q: %w", p.cfg.Schedule, err)
	}
	p.cron.Start()
	p.started = true

	p.log.Info("Pinger started",
		logger.String("schedule", p.cfg.Schedule),
		logger.Int("targets", len(p.cfg.Targets)),
	)
	return nil
}

// Stop halts the schedule and waits for a running tick until ctx is done.
func (p *Pinger) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	p.mu.Unlock()

	done := p.cron.Stop()
	select {
	case <-done.Done():
		p.log.Info("Pinger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PingAll pings every target concurrently and returns the results in
// configuration order.
func (p *Pinger) PingAll(ctx context.Context) []models.PingResult {
	results := make([]models.PingResult, len(p.cfg.Targets))

	var wg sync.WaitGroup
	for i, target := range p.cfg.Targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.ping(ctx, target)
		}()
	}
	wg.Wait()

	p.mu.Lock()
	for _, r := range results {
		p.results[r.Target] = r
	}
	p.mu.Unlock()

	return results
}

func (p *Pinger) ping(ctx context.Context, target string) models.PingResult {
	result := models.PingResult{Target: target, PingedAt: p.now().UTC()}
	start := time.Now()

	resp, err := p.client.R().SetContext(ctx).Execute(p.method(), target)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.StatusCode = resp.StatusCode()
		if !result.OK() {
			result.Error = fmt.Sprintf("unexpected status %d", result.StatusCode)
		}
	}

	p.Metrics.Observe(target, result.OK(), result.Latency)
	if result.OK() {
		p.log.Debug("Ping succeeded",
			logger.String("target", target),
			logger.Int("status", result.StatusCode),
			logger.Duration("latency", result.Latency),
		)
	} else {
		p.log.Warn("Ping failed",
			logger.String("target", target),
			logger.Int("status", result.StatusCode),
			logger.String("error", result.Error),
		)
	}
	return result
}

func (p *Pinger) method() string {
	if p.cfg.Method == "" {
		return http.MethodGet
	}
	return p.cfg.Method
}

// Results returns the latest result per target in configuration order.
// Targets not pinged yet are omitted.
func (p *Pinger) Results() []models.PingResult {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.PingResult, 0, len(p.results))
	for _, target := range p.cfg.Targets {
		if r, ok := p.results[target]; ok {
			out = append(out, r)
		}
	}
	return out
}
