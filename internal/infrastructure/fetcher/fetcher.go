package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxPageBytes   = 8 << 20
	fallbackAgent  = "Mozilla/5.0 (compatible; NewsRelay/1.0)"
)

// Options configures an HTTPFetcher.
type Options struct {
	ListingURL string
	Timeout    time.Duration
	UserAgents []string
	Client     *http.Client
	Rand       *rand.Rand
}

// HTTPFetcher performs single bounded GET requests against the source site.
// Each request carries a User-Agent drawn from the configured pool.
type HTTPFetcher struct {
	listingURL string
	client     *http.Client
	agents     []string

	mu   sync.Mutex
	rand *rand.Rand
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// New wires an HTTP client; a nil client gets the configured timeout.
func New(opts Options) *HTTPFetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	agents := opts.UserAgents
	if len(agents) == 0 {
		agents = []string{fallbackAgent}
	}
	return &HTTPFetcher{
		listingURL: opts.ListingURL,
		client:     client,
		agents:     agents,
		rand:       rnd,
	}
}

// FetchListing downloads the configured listing page.
func (f *HTTPFetcher) FetchListing(ctx context.Context) ([]byte, error) {
	return f.get(ctx, "fetch listing", f.listingURL)
}

// FetchArticle downloads one article page.
func (f *HTTPFetcher) FetchArticle(ctx context.Context, url string) ([]byte, error) {
	return f.get(ctx, "fetch article", url)
}

func (f *HTTPFetcher) get(ctx context.Context, op, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, domain.NewFailure(op, domain.FailureTransport, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", f.pickAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.StatusFailure(op, resp.StatusCode, fmt.Errorf("%s returned %s", pageURL, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, classify(op, fmt.Errorf("read body: %w", err))
	}
	if len(body) == 0 {
		return nil, domain.NewFailure(op, domain.FailureEmptyBody, fmt.Errorf("%s returned no content", pageURL))
	}
	return body, nil
}

func (f *HTTPFetcher) pickAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agents[f.rand.Intn(len(f.agents))]
}

func classify(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFailure(op, domain.FailureTimeout, err)
	}
	return domain.NewFailure(op, domain.FailureTransport, err)
}
