package domain

import "time"

// DateLayout is the day-granularity format used for processed dates.
const DateLayout = "2006-01-02"

// Candidate is a (title, url) pair extracted from the listing page.
type Candidate struct {
	Title string
	URL   string
}

// Article is one processed record in the article store.
type Article struct {
	ContentKey      string
	Title           string
	TranslatedTitle string
	SourceURL       string
	ProcessedDate   string
}

// NewArticle builds a record for a translated candidate processed at the given time.
func NewArticle(c Candidate, translated string, processedAt time.Time) Article {
	return Article{
		ContentKey:      GenerateKey(c.URL),
		Title:           c.Title,
		TranslatedTitle: translated,
		SourceURL:       c.URL,
		ProcessedDate:   processedAt.Format(DateLayout),
	}
}

// TranslationRequest carries the text handed to the translation service.
type TranslationRequest struct {
	Title string
	Body  string
}

// Message is a single formatted chat delivery.
type Message struct {
	Text       string
	ButtonText string
	ButtonURL  string
}

// KeySet is an equality-comparable set of content keys.
type KeySet map[string]struct{}

// Has reports whether key belongs to the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key into the set.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}
