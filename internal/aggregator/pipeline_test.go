package aggregator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adda-Baaj/seema-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/seema-khobor/pkg/providers"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type newsSite struct {
	srv *httptest.Server
	mux *http.ServeMux
}

func newNewsSite(t *testing.T) *newsSite {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &newsSite{srv: srv, mux: mux}
}

func (s *newsSite) page(path, body string, delay time.Duration) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte(body))
	})
}

func article(desc, published string) string {
	meta := ""
	if published != "" {
		meta = fmt.Sprintf(`<meta property="article:published_time" content="%s">`, published)
	}
	return fmt.Sprintf(`<html><head><meta name="description" content="%s">%s</head><body></body></html>`, desc, meta)
}

func newPipeline(t *testing.T, sources []providers.Provider, mod func(*Options)) *Pipeline {
	t.Helper()
	opts := Options{
		Sources:  sources,
		Keywords: []string{"army", "border", "navy", "war"},
		Client:   httpclient.NewRestyClient(time.Second),
		Now:      func() time.Time { return fixedNow },
	}
	if mod != nil {
		mod(&opts)
	}
	p, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunMergesScoresAndOrders(t *testing.T) {
	hindu := newNewsSite(t)
	wion := newNewsSite(t)

	hindu.page("/national/", `<html><body>
		<a href="/national/army-clash">Army Clash At Border!!</a>
		<a href="/national/budget">Budget session opens</a>
		<a href="/national/navy">Navy commissions frigate</a>
	</body></html>`, 0)
	hindu.page("/national/army-clash", article("Troops clashed on the border.", "2026-10-16T11:30:00Z"), 0)
	hindu.page("/national/navy", article("A new frigate joins the navy.", "2026-10-16T11:50:00Z"), 0)

	wion.page("/india", `<html><body>
		<a href="/india/clash">army clash at border</a>
		<a href="/india/war-games">War games near border</a>
	</body></html>`, 0)
	wion.page("/india/clash", article("WION desk report.", "2026-10-16T11:40:00Z"), 0)
	// war-games page is missing: enrichment falls back to capture time

	p := newPipeline(t, []providers.Provider{
		{ID: "the-hindu", Name: "The Hindu", SourceURL: hindu.srv.URL + "/national/"},
		{ID: "wion", Name: "WION", SourceURL: wion.srv.URL + "/india"},
	}, nil)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Error("run id not assigned")
	}
	if res.Stats.Candidates != 4 || res.Stats.SourcesFailed != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Articles) != 3 {
		t.Fatalf("expected 3 merged articles, got %d: %+v", len(res.Articles), res.Articles)
	}

	// newest first: war-games (capture time 12:00), navy (11:50), army clash (11:30)
	wantOrder := []string{
		wion.srv.URL + "/india/war-games",
		hindu.srv.URL + "/national/navy",
		hindu.srv.URL + "/national/army-clash",
	}
	for i, u := range wantOrder {
		if res.Articles[i].URL != u {
			t.Errorf("position %d = %s, want %s", i, res.Articles[i].URL, u)
		}
	}

	clash := res.Articles[2]
	if clash.Source != "The Hindu, WION" {
		t.Errorf("merged source = %q", clash.Source)
	}
	if clash.Description != "Troops clashed on the border." {
		t.Errorf("anchor description not kept: %q", clash.Description)
	}
	// army + border = 10, age 30 minutes = 30
	if clash.Score != 40 {
		t.Errorf("clash score = %v, want 40", clash.Score)
	}

	games := res.Articles[0]
	if games.Description != "" || games.Image != nil || !games.PublishedAt.Equal(fixedNow) {
		t.Errorf("failed enrichment should keep defaults: %+v", games)
	}
}

func TestRunDiscoveryOrderIsRegistryOrder(t *testing.T) {
	slow := newNewsSite(t)
	fast := newNewsSite(t)

	shared := fast.srv.URL + "/story"
	fast.page("/story", article("shared story", ""), 0)
	slow.page("/list", fmt.Sprintf(`<a href="%s">Border standoff</a>`, shared), 150*time.Millisecond)
	fast.page("/list", `<a href="/story">Border standoff eases</a>`, 0)

	p := newPipeline(t, []providers.Provider{
		{ID: "slow", Name: "Slow Daily", SourceURL: slow.srv.URL + "/list"},
		{ID: "fast", Name: "Fast Times", SourceURL: fast.srv.URL + "/list"},
	}, nil)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Articles) != 1 {
		t.Fatalf("expected 1 article, got %+v", res.Articles)
	}
	if got := res.Articles[0]; got.Source != "Slow Daily" || got.Title != "Border standoff" {
		t.Errorf("first source in registry order must own the URL, got %+v", got)
	}
}

func TestRunPartialSourceFailure(t *testing.T) {
	good := newNewsSite(t)
	good.page("/list", `<a href="/a">Army day parade</a>`, 0)
	good.page("/a", article("parade", ""), 0)

	bad := newNewsSite(t)
	bad.mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	p := newPipeline(t, []providers.Provider{
		{ID: "bad", Name: "Bad", SourceURL: bad.srv.URL + "/list"},
		{ID: "good", Name: "Good", SourceURL: good.srv.URL + "/list"},
	}, nil)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not abort: %v", err)
	}
	if res.Stats.SourcesFailed != 1 || len(res.Articles) != 1 {
		t.Errorf("stats = %+v articles = %d", res.Stats, len(res.Articles))
	}
}

func TestRunAllSourcesReturnErrorStatus(t *testing.T) {
	bad := newNewsSite(t)
	bad.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	p := newPipeline(t, []providers.Provider{{ID: "bad", SourceURL: bad.srv.URL + "/"}}, nil)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("status failures are not systemic: %v", err)
	}
	if res.Articles == nil || len(res.Articles) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", res.Articles)
	}
}

func TestRunTransportUnavailable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	p := newPipeline(t, []providers.Provider{
		{ID: "a", SourceURL: deadURL + "/a"},
		{ID: "b", SourceURL: deadURL + "/b"},
	}, nil)

	res, err := p.Run(context.Background())
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
	if len(res.Articles) != 0 {
		t.Errorf("expected empty list")
	}
}

func TestRunNoSourcesIsEmptyResult(t *testing.T) {
	p := newPipeline(t, nil, nil)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("empty registry is not an error: %v", err)
	}
	if res.Articles == nil || len(res.Articles) != 0 || res.Stats.SourcesTotal != 0 {
		t.Errorf("got %+v", res)
	}
}

func TestRunEverySourceTimingOutIsEmptyResult(t *testing.T) {
	var sources []providers.Provider
	for _, id := range []string{"a", "b", "c"} {
		site := newNewsSite(t)
		site.page("/list", `<a href="/x">Army clash at border</a>`, 2*time.Second)
		sources = append(sources, providers.Provider{ID: id, SourceURL: site.srv.URL + "/list"})
	}

	p := newPipeline(t, sources, func(o *Options) {
		o.Client = httpclient.NewRestyClient(200 * time.Millisecond)
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("timeouts are source failures, not a transport outage: %v", err)
	}
	if res.Articles == nil || len(res.Articles) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", res.Articles)
	}
	if res.Stats.SourcesFailed != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestIsUnreachable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"refused dial", fmt.Errorf("fetch a listing: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), true},
		{"dns", &net.DNSError{Err: "no such host", Name: "news.invalid", IsNotFound: true}, true},
		{"dial timeout", &net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}, false},
		{"read reset", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}, false},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), false},
		{"status", &httpclient.StatusError{StatusCode: 503}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUnreachable(tt.err); got != tt.want {
				t.Errorf("isUnreachable = %v, want %v", got, tt.want)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRunBudgetReturnsPartialResults(t *testing.T) {
	site := newNewsSite(t)
	site.page("/list", `<a href="/slow">Navy rescue under way</a>`, 0)
	site.page("/slow", article("late", ""), 5*time.Second)

	p := newPipeline(t, []providers.Provider{{ID: "s", Name: "S", SourceURL: site.srv.URL + "/list"}}, func(o *Options) {
		o.RunBudget = 300 * time.Millisecond
		o.Client = httpclient.NewRestyClient(10 * time.Second)
	})

	start := time.Now()
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("budget not enforced: %s", time.Since(start))
	}
	if !res.Stats.BudgetHit {
		t.Error("expected budget hit")
	}
	if len(res.Articles) != 1 || res.Articles[0].Description != "" {
		t.Errorf("expected the unenriched candidate, got %+v", res.Articles)
	}
}

func TestNewRejectsBadMergeMode(t *testing.T) {
	if _, err := New(Options{MergeMode: "fuzzy"}); err == nil {
		t.Error("expected error")
	}
}
