package ports

import (
	"context"
	"time"

	"NewsRelay/internal/domain"
)

// PageFetcher retrieves raw HTML for the listing page and individual articles.
type PageFetcher interface {
	FetchListing(ctx context.Context) ([]byte, error)
	FetchArticle(ctx context.Context, url string) ([]byte, error)
}

// ContentExtractor turns raw HTML into candidates and plain-text bodies.
type ContentExtractor interface {
	ExtractListing(html []byte) []domain.Candidate
	ExtractBody(html []byte) string
}

// Translator obtains the translated representation of an article.
type Translator interface {
	Translate(ctx context.Context, req domain.TranslationRequest) (string, error)
}

// ArticleStore is the append-only table of processed articles.
type ArticleStore interface {
	LoadExistingKeys(ctx context.Context) (domain.KeySet, error)
	Append(ctx context.Context, article domain.Article) error
	ListUndelivered(ctx context.Context, exclude domain.KeySet) ([]domain.Article, error)
	Prune(ctx context.Context, keepDate string) error
}

// SentLedger remembers which content keys were already delivered.
type SentLedger interface {
	Contains(key string) bool
	Record(ctx context.Context, key string) error
	Keys() domain.KeySet
}

// Notifier delivers one formatted message to the configured channel.
type Notifier interface {
	Send(ctx context.Context, msg domain.Message) error
}

// Pacer pauses between outbound requests.
type Pacer interface {
	Pause(ctx context.Context) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
