package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// ErrLedgerWrite marks a cycle aborted because a delivery could not be recorded.
var ErrLedgerWrite = errors.New("sent ledger write failed")

// PublishDeps wires the publisher.
type PublishDeps struct {
	Ingest         *IngestionPipeline
	Store          ports.ArticleStore
	Ledger         ports.SentLedger
	Notifier       ports.Notifier
	Pacer          ports.Pacer
	Logger         *slog.Logger
	Clock          func() time.Time
	LinkText       string
	ButtonText     string
	StartupMessage string
	PruneOnCycle   bool
}

// PublishReport summarises one harvest-and-publish cycle.
type PublishReport struct {
	CycleID     string
	Ingest      IngestReport
	Undelivered int
	Sent        int
	Failed      int
}

// Publisher runs ingestion and then delivers every stored article the ledger has not seen.
type Publisher struct {
	ingest   *IngestionPipeline
	store    ports.ArticleStore
	ledger   ports.SentLedger
	notifier ports.Notifier
	pacer    ports.Pacer
	logger   *slog.Logger
	clock    func() time.Time

	linkText       string
	buttonText     string
	startupMessage string
	pruneOnCycle   bool
}

// NewPublisher constructs a publisher from its dependencies.
func NewPublisher(deps PublishDeps) *Publisher {
	p := &Publisher{
		ingest:         deps.Ingest,
		store:          deps.Store,
		ledger:         deps.Ledger,
		notifier:       deps.Notifier,
		pacer:          deps.Pacer,
		logger:         deps.Logger,
		clock:          deps.Clock,
		linkText:       deps.LinkText,
		buttonText:     deps.ButtonText,
		startupMessage: deps.StartupMessage,
		pruneOnCycle:   deps.PruneOnCycle,
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

// RunCycle executes one full cycle. The returned error is non-nil only when the cycle was aborted.
func (p *Publisher) RunCycle(ctx context.Context) (PublishReport, error) {
	report := PublishReport{CycleID: uuid.NewString()}
	log := p.logger.With("cycle", report.CycleID)
	started := p.clock()
	log.Info("cycle started")

	if p.pruneOnCycle {
		if err := p.prune(ctx, log); err != nil {
			log.Error("cycle aborted", "error", err)
			return report, err
		}
	}

	ingest, err := p.ingest.run(ctx, log.With("component", "ingest"))
	report.Ingest = ingest
	if err != nil {
		log.Error("cycle aborted", "stage", "ingest", "error", err)
		return report, fmt.Errorf("ingest: %w", err)
	}

	if err := p.deliver(ctx, log, &report); err != nil {
		log.Error("cycle aborted", "stage", "deliver", "error", err)
		return report, err
	}

	log.Info("cycle finished",
		"stored", ingest.Count(domain.StateStored),
		"undelivered", report.Undelivered,
		"sent", report.Sent,
		"failed", report.Failed,
		"took", p.clock().Sub(started).Round(time.Millisecond),
	)
	return report, nil
}

func (p *Publisher) deliver(ctx context.Context, log *slog.Logger, report *PublishReport) error {
	pending, err := p.store.ListUndelivered(ctx, p.ledger.Keys())
	if err != nil {
		return fmt.Errorf("list undelivered: %w", err)
	}
	report.Undelivered = len(pending)
	if len(pending) == 0 {
		log.Info("nothing to publish")
		return nil
	}

	attempted := 0
	for _, article := range pending {
		// The table may hold a key twice; deliver it once.
		if p.ledger.Contains(article.ContentKey) {
			continue
		}
		if attempted > 0 {
			if err := p.pacer.Pause(ctx); err != nil {
				return fmt.Errorf("pause between sends: %w", err)
			}
		}
		attempted++

		alog := log.With("key", article.ContentKey, "url", article.SourceURL)
		msg := FormatMessage(article, p.linkText, p.buttonText)
		if err := p.notifier.Send(ctx, msg); err != nil {
			report.Failed++
			alog.Warn("send failed, will retry next cycle", "kind", domain.KindOf(err), "error", err)
			continue
		}

		if err := p.ledger.Record(ctx, article.ContentKey); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLedgerWrite, article.ContentKey, err)
		}
		report.Sent++
		alog.Info("article published", "title", article.Title)
	}
	return nil
}

func (p *Publisher) prune(ctx context.Context, log *slog.Logger) error {
	keep := p.clock().Format(domain.DateLayout)
	if err := p.store.Prune(ctx, keep); err != nil {
		return fmt.Errorf("prune store: %w", err)
	}
	log.Info("store pruned", "kept", keep)
	return nil
}

// Prune rewrites the store keeping only today's partition.
func (p *Publisher) Prune(ctx context.Context) error {
	return p.prune(ctx, p.logger)
}

// Announce sends the startup message. Failures are logged and never returned.
func (p *Publisher) Announce(ctx context.Context) {
	if p.startupMessage == "" {
		return
	}
	if err := p.notifier.Send(ctx, domain.Message{Text: p.startupMessage}); err != nil {
		p.logger.Warn("startup announcement failed", "kind", domain.KindOf(err), "error", err)
		return
	}
	p.logger.Info("startup announcement sent")
}
