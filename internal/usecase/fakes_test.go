package usecase

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"NewsRelay/internal/domain"
)

var fixedNow = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeFetcher struct {
	listing    []byte
	listingErr error
	articles   map[string]string
	failing    map[string]error
	fetched    []string
}

func (f *fakeFetcher) FetchListing(context.Context) ([]byte, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return f.listing, nil
}

func (f *fakeFetcher) FetchArticle(_ context.Context, url string) ([]byte, error) {
	f.fetched = append(f.fetched, url)
	if err, ok := f.failing[url]; ok {
		return nil, err
	}
	return []byte(f.articles[url]), nil
}

// fakeExtractor returns fixed candidates and uses the page itself as the body.
type fakeExtractor struct {
	candidates []domain.Candidate
}

func (e *fakeExtractor) ExtractListing([]byte) []domain.Candidate {
	return append([]domain.Candidate(nil), e.candidates...)
}

func (e *fakeExtractor) ExtractBody(html []byte) string {
	return string(html)
}

type fakeTranslator struct {
	err   error
	calls []domain.TranslationRequest
}

func (t *fakeTranslator) Translate(_ context.Context, req domain.TranslationRequest) (string, error) {
	t.calls = append(t.calls, req)
	if t.err != nil {
		return "", t.err
	}
	return "RU: " + req.Title, nil
}

type memStore struct {
	rows      []domain.Article
	loadErr   error
	appendErr error
	listErr   error
	pruneErr  error
	prunedTo  string
}

func (s *memStore) LoadExistingKeys(context.Context) (domain.KeySet, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	keys := domain.KeySet{}
	for _, r := range s.rows {
		keys.Add(r.ContentKey)
	}
	return keys, nil
}

func (s *memStore) Append(_ context.Context, a domain.Article) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.rows = append(s.rows, a)
	return nil
}

func (s *memStore) ListUndelivered(_ context.Context, exclude domain.KeySet) ([]domain.Article, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Article
	for _, r := range s.rows {
		if !exclude.Has(r.ContentKey) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Prune(_ context.Context, keep string) error {
	if s.pruneErr != nil {
		return s.pruneErr
	}
	s.prunedTo = keep
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.ProcessedDate == keep {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

type memLedger struct {
	mu       sync.Mutex
	keys     domain.KeySet
	recorded []string
	err      error
}

func newMemLedger(keys ...string) *memLedger {
	l := &memLedger{keys: domain.KeySet{}}
	for _, k := range keys {
		l.keys.Add(k)
	}
	return l
}

func (l *memLedger) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keys.Has(key)
}

func (l *memLedger) Record(_ context.Context, key string) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys.Add(key)
	l.recorded = append(l.recorded, key)
	return nil
}

func (l *memLedger) Keys() domain.KeySet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.keys)
}

type fakeNotifier struct {
	sent   []domain.Message
	failOn string
}

func (n *fakeNotifier) Send(_ context.Context, msg domain.Message) error {
	if n.failOn != "" && strings.Contains(msg.Text, n.failOn) {
		return domain.StatusFailure("send message", 429, errors.New("Too Many Requests"))
	}
	n.sent = append(n.sent, msg)
	return nil
}

type countingPacer struct {
	calls int
}

func (p *countingPacer) Pause(ctx context.Context) error {
	p.calls++
	return ctx.Err()
}

func article(url, title string) domain.Article {
	return domain.NewArticle(domain.Candidate{Title: title, URL: url}, "перевод "+title, fixedNow)
}
