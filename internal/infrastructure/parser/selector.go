package parser

import (
	"bytes"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/extractor"
)

const untitled = "Untitled"

// Selectors names the CSS selectors describing the source site layout.
type Selectors struct {
	Listing   string
	Content   string
	Paragraph string
}

// SelectorExtractor parses the listing and article pages with fixed CSS selectors.
type SelectorExtractor struct {
	base      *url.URL
	selectors Selectors
	logger    *slog.Logger
}

var _ extractor.Extractor = (*SelectorExtractor)(nil)

// NewSelectorExtractor resolves relative links against listingURL.
func NewSelectorExtractor(listingURL string, selectors Selectors, log *slog.Logger) *SelectorExtractor {
	base, err := url.Parse(listingURL)
	if err != nil {
		base = nil
	}
	if selectors.Paragraph == "" {
		selectors.Paragraph = "p"
	}
	return &SelectorExtractor{base: base, selectors: selectors, logger: log}
}

// Name identifies the strategy inside the registry.
func (s *SelectorExtractor) Name() string {
	return "selector"
}

// ExtractListing returns (title, url) pairs in document order.
func (s *SelectorExtractor) ExtractListing(html []byte) []domain.Candidate {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		s.debug("parse listing", "error", err)
		return nil
	}

	var candidates []domain.Candidate
	doc.Find(s.selectors.Listing).Each(func(_ int, sel *goquery.Selection) {
		link := sel
		if goquery.NodeName(sel) != "a" {
			link = sel.Find("a[href]").First()
		}
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			s.debug("listing entry without url skipped", "text", strings.TrimSpace(sel.Text()))
			return
		}

		title := strings.Join(strings.Fields(link.Text()), " ")
		if title == "" {
			title = untitled
		}
		candidates = append(candidates, domain.Candidate{Title: title, URL: s.resolve(href)})
	})

	return candidates
}

// ExtractBody joins the text of the content region's paragraphs with newlines.
func (s *SelectorExtractor) ExtractBody(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		s.debug("parse article", "error", err)
		return ""
	}

	region := doc.Find(s.selectors.Content).First()
	if region.Length() == 0 {
		return ""
	}
	return paragraphText(region, s.selectors.Paragraph)
}

func paragraphText(region *goquery.Selection, paragraph string) string {
	var parts []string
	region.Find(paragraph).Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func (s *SelectorExtractor) resolve(href string) string {
	if s.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return s.base.ResolveReference(ref).String()
}

func (s *SelectorExtractor) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
