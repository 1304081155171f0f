// Package scraper walks the paginated flash-sale feed with a synchronous colly collector.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/models"
	"github.com/aluiziolira/go-flashsale/session"
)

const (
	bodyKey   = "body"
	statusKey = "status"
)

// Fetcher issues signed page requests one at a time and accumulates raw items.
type Fetcher struct {
	cfg       config.FeedConfig
	collector *colly.Collector
	Metrics   *Metrics
	log       logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher builds a fetcher configured from cfg.
func NewFetcher(cfg config.FeedConfig, log logger.Logger) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("feed config: %w", err)
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(cfg.MaxBodySize),
	)
	collector.DisableCookies()
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		Metrics:   NewMetrics(),
		log:       log.With(logger.String("component", "fetcher")),
		now:       time.Now,
		sleep:     sleepContext,
	}
	f.registerHandlers()
	return f, nil
}

// WithTransport replaces the HTTP transport used for feed requests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

func (f *Fetcher) registerHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		f.Metrics.IncRequest("started")
	})
	f.collector.OnResponse(func(r *colly.Response) {
		f.Metrics.IncRequest("completed")
		r.Ctx.Put(bodyKey, r.Body)
		r.Ctx.Put(statusKey, r.StatusCode)
	})
	f.collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put(statusKey, r.StatusCode)
		}
	})
}

// Fetch walks the feed with the session carried by rawCookies. Any page
// failure aborts the walk and discards the items gathered so far.
func (f *Fetcher) Fetch(ctx context.Context, rawCookies string) (*models.FetchResult, error) {
	creds, err := session.ParseCredentials(rawCookies)
	if err != nil {
		f.Metrics.IncError(errorTypeLabel(err))
		return nil, err
	}

	start := f.now()
	f.log.Info("starting scrape", logger.Int("max_pages", f.cfg.MaxPages))

	var (
		items    []models.RawItem
		streamID string
		page     = 1
	)
	for {
		if page > 1 {
			if err := f.sleep(ctx, f.cfg.PageDelay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := f.fetchPage(creds, page, streamID)
		if err != nil {
			f.log.Error("page fetch failed",
				logger.Int("page", page),
				logger.String("category", errorTypeLabel(err)),
				logger.Error(err),
			)
			return nil, fmt.Errorf("request failed: %w", err)
		}
		f.Metrics.AddPage(len(resp.Items))

		if page == 1 && resp.EndPage {
			items = append(items, resp.Items...)
			f.log.Info("single page result", logger.Int("items", len(resp.Items)))
			break
		}
		if len(resp.Items) == 0 {
			f.log.Info("no more items", logger.Int("page", page))
			break
		}
		items = append(items, resp.Items...)
		f.log.Debug("page fetched",
			logger.Int("page", page),
			logger.Int("items", len(resp.Items)),
			logger.Int("total", len(items)),
		)
		if resp.EndPage {
			f.log.Info("reached last page", logger.Int("page", page))
			break
		}
		if resp.StreamID != "" {
			streamID = resp.StreamID
		}
		if page >= f.cfg.MaxPages {
			f.log.Warn("page ceiling reached", logger.Int("max_pages", f.cfg.MaxPages))
			break
		}
		page++
	}

	result := &models.FetchResult{
		Items:        items,
		PagesScraped: page,
		Elapsed:      f.now().Sub(start),
	}
	f.log.Info("scrape finished",
		logger.Int("items", len(result.Items)),
		logger.Int("pages", result.PagesScraped),
		logger.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (f *Fetcher) fetchPage(creds *session.Credentials, page int, streamID string) (*models.Page, error) {
	target, err := f.pageURL(creds, page, streamID)
	if err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	began := time.Now()
	err = f.collector.Request(http.MethodGet, target, nil, reqCtx, f.headers(creds))
	f.Metrics.ObserveDuration(time.Since(began))

	statusCode, _ := reqCtx.GetAny(statusKey).(int)
	if err != nil {
		classified := classifyError(err, statusCode)
		f.Metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}

	body, _ := reqCtx.GetAny(bodyKey).([]byte)
	resp := decodePage(body)
	if !succeeded(resp) {
		remote := ErrRemoteStatus{Status: resp.Status}
		f.Metrics.IncError(errorTypeLabel(remote))
		return nil, remote
	}
	return resp, nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TransportError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportError{Kind: KindTimeout, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return TransportError{Kind: KindConnection, Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return TransportError{Kind: KindForbidden, Err: wrapped}
		case http.StatusNotFound:
			return TransportError{Kind: KindNotFound, Err: wrapped}
		case http.StatusTooManyRequests:
			return TransportError{Kind: KindRateLimited, Err: wrapped}
		}
	}

	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
