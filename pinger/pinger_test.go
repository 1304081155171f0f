package pinger

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/logger"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPinger(t *testing.T, targets []string, transport *httpmock.MockTransport) *Pinger {
	t.Helper()
	cfg := config.DefaultConfig().Pinger
	cfg.Targets = targets

	p, err := New(cfg, logger.NewNop(), WithTransport(transport), WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("new pinger: %v", err)
	}
	return p
}

func TestPingAllRecordsEveryTarget(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://hooks.test/ok", httpmock.NewStringResponder(http.StatusOK, "pong"))
	transport.RegisterResponder("GET", "https://hooks.test/bad", httpmock.NewStringResponder(http.StatusBadGateway, ""))
	transport.RegisterResponder("GET", "https://hooks.test/down", httpmock.NewErrorResponder(errors.New("connection refused")))

	targets := []string{"https://hooks.test/ok", "https://hooks.test/bad", "https://hooks.test/down"}
	p := newTestPinger(t, targets, transport)

	results := p.PingAll(context.Background())

	if len(results) != 3 {
		t.Fatalf("results=%d, want 3", len(results))
	}
	for i, target := range targets {
		if results[i].Target != target {
			t.Fatalf("results[%d].Target=%q, want %q", i, results[i].Target, target)
		}
		if !results[i].PingedAt.Equal(fixedNow) {
			t.Fatalf("results[%d].PingedAt=%v, want %v", i, results[i].PingedAt, fixedNow)
		}
	}
	if !results[0].OK() || results[0].StatusCode != http.StatusOK {
		t.Fatalf("ok target: %+v", results[0])
	}
	if results[1].OK() || results[1].StatusCode != http.StatusBadGateway || results[1].Error == "" {
		t.Fatalf("bad target: %+v", results[1])
	}
	if results[2].OK() || results[2].StatusCode != 0 || results[2].Error == "" {
		t.Fatalf("down target: %+v", results[2])
	}

	if got := testutil.ToFloat64(p.Metrics.PingsTotal.WithLabelValues("https://hooks.test/ok", "success")); got != 1 {
		t.Fatalf("success pings=%v, want 1", got)
	}
	if got := testutil.ToFloat64(p.Metrics.PingsTotal.WithLabelValues("https://hooks.test/down", "failure")); got != 1 {
		t.Fatalf("failure pings=%v, want 1", got)
	}
	if got := testutil.ToFloat64(p.Metrics.TargetUp.WithLabelValues("https://hooks.test/bad")); got != 0 {
		t.Fatalf("bad target up=%v, want 0", got)
	}
}

func TestResultsKeepLatestPerTarget(t *testing.T) {
	transport := httpmock.NewMockTransport()
	status := http.StatusServiceUnavailable
	transport.RegisterResponder("GET", "https://hooks.test/flaky", func(*http.Request) (*http.Response, error) {
		return httpmock.NewStringResponse(status, ""), nil
	})

	p := newTestPinger(t, []string{"https://hooks.test/flaky"}, transport)
	if got := p.Results(); len(got) != 0 {
		t.Fatalf("results before first ping=%d, want 0", len(got))
	}

	p.PingAll(context.Background())
	status = http.StatusNoContent
	p.PingAll(context.Background())

	results := p.Results()
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	if !results[0].OK() || results[0].StatusCode != http.StatusNoContent {
		t.Fatalf("latest result=%+v, want 204", results[0])
	}
	if calls := transport.GetTotalCallCount(); calls != 2 {
		t.Fatalf("calls=%d, want 2 (no retries)", calls)
	}
}

func TestPingUsesConfiguredMethodAndUserAgent(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var gotUA string
	transport.RegisterResponder("POST", "https://hooks.test/post", func(req *http.Request) (*http.Response, error) {
		gotUA = req.Header.Get("User-Agent")
		return httpmock.NewStringResponse(http.StatusOK, ""), nil
	})

	cfg := config.DefaultConfig().Pinger
	cfg.Targets = []string{"https://hooks.test/post"}
	cfg.Method = http.MethodPost
	cfg.UserAgent = "flashsale-pinger/1.0"
	p, err := New(cfg, nil, WithTransport(transport))
	if err != nil {
		t.Fatalf("new pinger: %v", err)
	}

	results := p.PingAll(context.Background())
	if !results[0].OK() {
		t.Fatalf("result=%+v, want success", results[0])
	}
	if gotUA != "flashsale-pinger/1.0" {
		t.Fatalf("user agent=%q", gotUA)
	}
}

func TestNewRejectsInvalidTarget(t *testing.T) {
	cfg := config.DefaultConfig().Pinger
	cfg.Targets = []string{"ftp://hooks.test"}
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for non-http target")
	}
}

func TestStartStop(t *testing.T) {
	p := newTestPinger(t, nil, httpmock.NewMockTransport())

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second start err=%v, want ErrAlreadyStarted", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	p := newTestPinger(t, nil, httpmock.NewMockTransport())
	p.cfg.Schedule = "every minute please"

	if err := p.Start(context.Background()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}
