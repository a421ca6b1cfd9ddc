package parser

import (
	"bytes"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/extractor"
)

// ReadabilityExtractor finds article bodies heuristically instead of by selector.
// Listing pages still go through the selector strategy.
type ReadabilityExtractor struct {
	listing *SelectorExtractor
	base    *url.URL
	logger  *slog.Logger
}

var _ extractor.Extractor = (*ReadabilityExtractor)(nil)

// NewReadabilityExtractor reuses the listing selectors of the selector strategy.
func NewReadabilityExtractor(listingURL string, selectors Selectors, log *slog.Logger) *ReadabilityExtractor {
	listing := NewSelectorExtractor(listingURL, selectors, log)
	base := listing.base
	if base == nil {
		base = &url.URL{}
	}
	return &ReadabilityExtractor{listing: listing, base: base, logger: log}
}

// Name identifies the strategy inside the registry.
func (r *ReadabilityExtractor) Name() string {
	return "readability"
}

// ExtractListing delegates to the selector strategy.
func (r *ReadabilityExtractor) ExtractListing(html []byte) []domain.Candidate {
	return r.listing.ExtractListing(html)
}

// ExtractBody returns the paragraphs of the readable content, or "" when none are found.
func (r *ReadabilityExtractor) ExtractBody(html []byte) string {
	article, err := readability.FromReader(bytes.NewReader(html), r.base)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("readability extraction failed", "error", err)
		}
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return ""
	}
	return paragraphText(doc.Selection, "p")
}
