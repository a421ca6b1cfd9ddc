package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// ErrListingUnavailable marks a cycle aborted because the listing page could not be fetched.
var ErrListingUnavailable = errors.New("listing page unavailable")

// IngestDeps wires the driven adapters used by the ingestion pipeline.
type IngestDeps struct {
	Fetcher    ports.PageFetcher
	Extractor  ports.ContentExtractor
	Translator ports.Translator
	Store      ports.ArticleStore
	Pacer      ports.Pacer
	Logger     *slog.Logger
	Clock      func() time.Time
}

// IngestReport counts how each candidate of one cycle ended.
type IngestReport struct {
	Discovered int
	Outcomes   map[domain.CandidateState]int
}

// Count returns how many candidates ended in state.
func (r IngestReport) Count(state domain.CandidateState) int {
	return r.Outcomes[state]
}

// IngestionPipeline runs fetch, extract, dedup, translate and persist for the listing page.
type IngestionPipeline struct {
	fetcher    ports.PageFetcher
	extractor  ports.ContentExtractor
	translator ports.Translator
	store      ports.ArticleStore
	pacer      ports.Pacer
	logger     *slog.Logger
	clock      func() time.Time
}

// NewIngestionPipeline constructs the pipeline; a nil pacer never pauses.
func NewIngestionPipeline(deps IngestDeps) *IngestionPipeline {
	p := &IngestionPipeline{
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		translator: deps.Translator,
		store:      deps.Store,
		pacer:      deps.Pacer,
		logger:     deps.Logger,
		clock:      deps.Clock,
	}
	if p.pacer == nil {
		p.pacer = NoPause{}
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// Run processes the listing page once. Only a listing failure or store I/O returns an error.
func (p *IngestionPipeline) Run(ctx context.Context) (IngestReport, error) {
	return p.run(ctx, p.logger)
}

func (p *IngestionPipeline) run(ctx context.Context, log *slog.Logger) (IngestReport, error) {
	report := IngestReport{Outcomes: map[domain.CandidateState]int{}}

	listing, err := p.fetcher.FetchListing(ctx)
	if err != nil {
		log.Error("fetch listing failed", "kind", domain.KindOf(err), "error", err)
		return report, fmt.Errorf("%w: %w", ErrListingUnavailable, err)
	}

	candidates := p.extractor.ExtractListing(listing)
	report.Discovered = len(candidates)
	log.Info("listing parsed", "candidates", len(candidates))
	if len(candidates) == 0 {
		return report, nil
	}

	existing, err := p.store.LoadExistingKeys(ctx)
	if err != nil {
		return report, fmt.Errorf("load existing keys: %w", err)
	}
	log.Debug("existing keys loaded", "count", len(existing))

	fetched := 0
	for _, candidate := range candidates {
		key := domain.GenerateKey(candidate.URL)
		clog := log.With("url", candidate.URL, "key", key)

		if existing.Has(key) {
			report.Outcomes[domain.StateDuplicateSkip]++
			clog.Debug("already stored")
			continue
		}

		if fetched > 0 {
			if err := p.pacer.Pause(ctx); err != nil {
				return report, fmt.Errorf("pause between fetches: %w", err)
			}
		}
		fetched++

		state, article := p.process(ctx, candidate, clog)
		if state != domain.StateStored {
			report.Outcomes[state]++
			continue
		}

		if err := p.store.Append(ctx, article); err != nil {
			return report, fmt.Errorf("append %s: %w", key, err)
		}
		existing.Add(key)
		report.Outcomes[domain.StateStored]++
		clog.Info("article stored", "title", candidate.Title)
	}

	log.Info("ingestion finished",
		"discovered", report.Discovered,
		"stored", report.Count(domain.StateStored),
		"duplicates", report.Count(domain.StateDuplicateSkip),
		"fetch_failed", report.Count(domain.StateFetchFailed),
		"empty_body", report.Count(domain.StateEmptyBodySkip),
		"translate_failed", report.Count(domain.StateTranslateFailed),
	)
	return report, nil
}

// process carries one new candidate to a terminal state without touching the store.
func (p *IngestionPipeline) process(ctx context.Context, c domain.Candidate, log *slog.Logger) (domain.CandidateState, domain.Article) {
	page, err := p.fetcher.FetchArticle(ctx, c.URL)
	if err != nil {
		log.Warn("article fetch failed, skipping", "kind", domain.KindOf(err), "error", err)
		return domain.StateFetchFailed, domain.Article{}
	}

	body := strings.TrimSpace(p.extractor.ExtractBody(page))
	if body == "" {
		log.Warn("article body is empty, skipping")
		return domain.StateEmptyBodySkip, domain.Article{}
	}
	log.Debug("article body extracted", "length", len(body))

	translated, err := p.translator.Translate(ctx, domain.TranslationRequest{Title: c.Title, Body: body})
	if err != nil {
		log.Warn("translation failed, skipping", "kind", domain.KindOf(err), "error", err)
		return domain.StateTranslateFailed, domain.Article{}
	}

	return domain.StateStored, domain.NewArticle(c, translated, p.clock())
}
