package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/tidwall/gjson"

	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/session"
)

const (
	testBaseURL = "http://feed.test/h5/recommend/1.0/"
	testCookies = "_m_h5_tk=abc123_1700000000000; _m_h5_tk_enc=enc; lzd_sid=sid"
)

type seenRequest struct {
	page     int64
	streamID string
	hasToken bool
	sign     string
	t        string
	data     string
	cookie   string
	origin   string
}

// fakeFeed serves pages from a function of the page number and records every request.
type fakeFeed struct {
	mu    sync.Mutex
	seen  []seenRequest
	serve func(page int64) (int, string)
}

func (f *fakeFeed) responder(req *http.Request) (*http.Response, error) {
	q := req.URL.Query()
	data := q.Get("data")
	params := gjson.Parse(gjson.Get(data, "params").String())
	token := params.Get("streamId")

	seen := seenRequest{
		page:     params.Get("pageNo").Int(),
		streamID: token.String(),
		hasToken: token.Exists(),
		sign:     q.Get("sign"),
		t:        q.Get("t"),
		data:     data,
		cookie:   req.Header.Get("Cookie"),
		origin:   req.Header.Get("Origin"),
	}
	f.mu.Lock()
	f.seen = append(f.seen, seen)
	f.mu.Unlock()

	status, body := f.serve(seen.page)
	resp := httpmock.NewStringResponse(status, body)
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func (f *fakeFeed) requests() []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]seenRequest, len(f.seen))
	copy(out, f.seen)
	return out
}

func feedPage(page int64, items int, endPage bool, streamID string) string {
	var entries []string
	for i := 0; i < items; i++ {
		entries = append(entries, fmt.Sprintf(`{"itemId":"p%d-%d","name":"Item %d"}`, page, i, i))
	}
	token := ""
	if streamID != "" {
		token = fmt.Sprintf(`,"streamId":%q`, streamID)
	}
	return fmt.Sprintf(
		`{"ret":["SUCCESS::ok"],"data":{"result":[{"endPage":%t%s,"data":{"items":[%s]}}]}}`,
		endPage, token, strings.Join(entries, ","),
	)
}

func newTestFetcher(t *testing.T, feed *fakeFeed) (*Fetcher, *httpmock.MockTransport, *[]time.Duration) {
	t.Helper()

	cfg := config.DefaultConfig().Feed
	cfg.BaseURL = testBaseURL

	f, err := NewFetcher(cfg, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testBaseURL, feed.responder)
	f.WithTransport(transport)

	sleeps := &[]time.Duration{}
	f.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return ctx.Err()
	}
	f.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return f, transport, sleeps
}

func TestFetchRejectsMissingCredential(t *testing.T) {
	for _, raw := range []string{
		"",
		"_m_h5_tk_enc=enc; lzd_sid=sid",
		"_m_h5_tk=abc_1; lzd_sid=sid",
		"_m_h5_tk=abc_1; _m_h5_tk_enc=enc",
	} {
		feed := &fakeFeed{serve: func(page int64) (int, string) { return 200, feedPage(page, 1, true, "") }}
		f, transport, _ := newTestFetcher(t, feed)

		result, err := f.Fetch(context.Background(), raw)
		if !errors.Is(err, session.ErrMissingCredential) {
			t.Fatalf("Fetch(%q) error = %v, want ErrMissingCredential", raw, err)
		}
		if result != nil {
			t.Fatalf("Fetch(%q) returned a result on failure", raw)
		}
		if got := transport.GetTotalCallCount(); got != 0 {
			t.Fatalf("Fetch(%q) issued %d requests, want 0", raw, got)
		}
	}
}

func TestFetchSinglePage(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) { return 200, feedPage(page, 3, true, "s1") }}
	f, transport, sleeps := newTestFetcher(t, feed)

	result, err := f.Fetch(context.Background(), testCookies)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
	if len(result.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(result.Items))
	}
	if result.PagesScraped != 1 {
		t.Fatalf("pages = %d, want 1", result.PagesScraped)
	}
	if len(*sleeps) != 0 {
		t.Fatalf("delay observed before first page: %v", *sleeps)
	}
}

func TestFetchStopsAtPageCeiling(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) { return 200, feedPage(page, 2, false, "") }}
	f, transport, sleeps := newTestFetcher(t, feed)

	result, err := f.Fetch(context.Background(), testCookies)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 20 {
		t.Fatalf("requests = %d, want 20", got)
	}
	if result.PagesScraped != 20 {
		t.Fatalf("pages = %d, want 20", result.PagesScraped)
	}
	if len(result.Items) != 40 {
		t.Fatalf("items = %d, want 40", len(result.Items))
	}
	if len(*sleeps) != 19 {
		t.Fatalf("delays = %d, want 19", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != 1500*time.Millisecond {
			t.Fatalf("delay = %v, want 1.5s", d)
		}
	}
}

func TestFetchStopsOnEmptyPage(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) {
		if page == 5 {
			return 200, feedPage(page, 0, false, "")
		}
		return 200, feedPage(page, 2, false, "tok")
	}}
	f, transport, _ := newTestFetcher(t, feed)

	result, err := f.Fetch(context.Background(), testCookies)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 5 {
		t.Fatalf("requests = %d, want 5", got)
	}
	if len(result.Items) != 8 {
		t.Fatalf("items = %d, want 8", len(result.Items))
	}
	if !strings.Contains(string(result.Items[0]), `"p1-0"`) || !strings.Contains(string(result.Items[7]), `"p4-1"`) {
		t.Fatalf("items out of order: first=%s last=%s", result.Items[0], result.Items[7])
	}
	if result.PagesScraped != 5 {
		t.Fatalf("pages = %d, want 5", result.PagesScraped)
	}
}

func TestFetchEndFlagIncludesLastPage(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) {
		return 200, feedPage(page, 2, page == 3, "tok")
	}}
	f, _, _ := newTestFetcher(t, feed)

	result, err := f.Fetch(context.Background(), testCookies)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(result.Items) != 6 || result.PagesScraped != 3 {
		t.Fatalf("items=%d pages=%d, want 6 and 3", len(result.Items), result.PagesScraped)
	}
}

func TestFetchKeepsLastContinuationToken(t *testing.T) {
	tokens := map[int64]string{1: "s1", 2: "", 3: "s3"}
	feed := &fakeFeed{serve: func(page int64) (int, string) {
		return 200, feedPage(page, 1, page == 4, tokens[page])
	}}
	f, _, _ := newTestFetcher(t, feed)

	if _, err := f.Fetch(context.Background(), testCookies); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	seen := feed.requests()
	if len(seen) != 4 {
		t.Fatalf("requests = %d, want 4", len(seen))
	}
	if seen[0].hasToken {
		t.Fatalf("first page carried a continuation token %q", seen[0].streamID)
	}
	want := []string{"", "s1", "s1", "s3"}
	for i, req := range seen {
		if req.page != int64(i+1) {
			t.Fatalf("request %d pageNo = %d", i, req.page)
		}
		if req.streamID != want[i] {
			t.Fatalf("page %d streamId = %q, want %q", req.page, req.streamID, want[i])
		}
	}
}

func TestFetchDiscardsItemsOnLaterFailure(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) {
		if page == 3 {
			return 200, `{"ret":["FAIL_SYS_TOKEN_EXPIRED::expired"]}`
		}
		return 200, feedPage(page, 2, false, "")
	}}
	f, transport, _ := newTestFetcher(t, feed)

	result, err := f.Fetch(context.Background(), testCookies)
	if err == nil {
		t.Fatalf("expected error")
	}
	if result != nil {
		t.Fatalf("partial result returned: %d items", len(result.Items))
	}
	var remote ErrRemoteStatus
	if !errors.As(err, &remote) {
		t.Fatalf("error %v is not ErrRemoteStatus", err)
	}
	if !strings.Contains(err.Error(), "FAIL_SYS_TOKEN_EXPIRED") {
		t.Fatalf("error %q does not carry the remote status", err)
	}
	if !strings.HasPrefix(err.Error(), "request failed: API Error: ") {
		t.Fatalf("error %q has unexpected shape", err)
	}
	if got := transport.GetTotalCallCount(); got != 3 {
		t.Fatalf("requests = %d, want 3", got)
	}
}

func TestFetchHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{status: http.StatusTooManyRequests, expected: "rate_limited"},
		{status: http.StatusForbidden, expected: "forbidden"},
		{status: http.StatusNotFound, expected: "not_found"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			feed := &fakeFeed{serve: func(int64) (int, string) { return tt.status, "" }}
			f, _, _ := newTestFetcher(t, feed)

			_, err := f.Fetch(context.Background(), testCookies)
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := errorTypeLabel(err); got != tt.expected {
				t.Fatalf("label = %q, want %q (err=%v)", got, tt.expected, err)
			}
		})
	}
}

func TestFetchSignsEveryRequest(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) { return 200, feedPage(page, 1, page == 2, "") }}
	f, _, _ := newTestFetcher(t, feed)

	if _, err := f.Fetch(context.Background(), testCookies); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, req := range feed.requests() {
		if req.t != "1700000000123" {
			t.Fatalf("t = %q", req.t)
		}
		want := session.Sign("abc123_1700000000000", req.t, "24677475", req.data)
		if req.sign != want {
			t.Fatalf("sign = %q, want %q", req.sign, want)
		}
		if gjson.Get(req.data, "appId").String() != "41711" {
			t.Fatalf("data %s lacks appId", req.data)
		}
		if req.cookie != "_m_h5_tk=abc123_1700000000000; _m_h5_tk_enc=enc; lzd_sid=sid" {
			t.Fatalf("cookie header = %q", req.cookie)
		}
		if req.origin != "https://pages.daraz.pk" {
			t.Fatalf("origin header = %q", req.origin)
		}
	}
}

func TestFetchCancelledDuringDelay(t *testing.T) {
	feed := &fakeFeed{serve: func(page int64) (int, string) { return 200, feedPage(page, 1, false, "") }}
	f, transport, _ := newTestFetcher(t, feed)

	ctx, cancel := context.WithCancel(context.Background())
	f.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	if _, err := f.Fetch(ctx, testCookies); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}

func TestDecodePageDefaults(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  string
		items   int
		endPage bool
		stream  string
	}{
		{name: "invalid json", body: "<html>", status: ""},
		{name: "no data", body: `{"ret":["SUCCESS::ok"]}`, status: "SUCCESS::ok"},
		{name: "empty result", body: `{"ret":["SUCCESS::ok"],"data":{"result":[]}}`, status: "SUCCESS::ok"},
		{name: "items object ignored", body: `{"ret":["SUCCESS"],"data":{"result":[{"data":{"items":{"a":1}}}]}}`, status: "SUCCESS"},
		{name: "full", body: feedPage(2, 4, true, "xyz"), status: "SUCCESS::ok", items: 4, endPage: true, stream: "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := decodePage([]byte(tt.body))
			if page.Status != tt.status || len(page.Items) != tt.items || page.EndPage != tt.endPage || page.StreamID != tt.stream {
				t.Fatalf("decodePage = %+v", page)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestErrorTypeLabelRemoteAndCredential(t *testing.T) {
	if got := errorTypeLabel(fmt.Errorf("request failed: %w", ErrRemoteStatus{Status: "FAIL"})); got != "remote_status" {
		t.Fatalf("label = %q, want remote_status", got)
	}
	if got := errorTypeLabel(fmt.Errorf("%w: lzd_sid", session.ErrMissingCredential)); got != "missing_credential" {
		t.Fatalf("label = %q, want missing_credential", got)
	}
}
