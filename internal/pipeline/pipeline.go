package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// SpotSource reads the raw activator feed.
type SpotSource interface {
	FetchSpots(ctx context.Context) ([]domain.FeedRecord, error)
}

// TokenSource returns a lookup key valid for the given day.
type TokenSource interface {
	Token(ctx context.Context, today domain.Date) (string, error)
}

// IdentityLookup resolves one callsign with a session key.
type IdentityLookup interface {
	Lookup(ctx context.Context, callsign, key string) (domain.Identity, error)
}

// Notifier delivers a composed message to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, message string) error
}

// SpotPublisher forwards enriched spots to a downstream consumer.
type SpotPublisher interface {
	PublishSpots(ctx context.Context, spots []domain.EnrichedSpot, publishedAt time.Time) error
}

// Result summarizes one run.
type Result struct {
	RunID   string
	Fetched int
	Matched int
	Batch   domain.NotificationBatch
}

// Option configures optional pipeline behaviour.
type Option func(*Pipeline)

// WithPublisher forwards every run's enriched spots to pub.
func WithPublisher(pub SpotPublisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithDryRun logs the composed batch instead of notifying.
func WithDryRun() Option {
	return func(p *Pipeline) { p.dryRun = true }
}

// Pipeline runs fetch, normalize, select, enrich, compose, and notify once
// per call to RunOnce.
type Pipeline struct {
	source    SpotSource
	tokens    TokenSource
	enricher  *Enricher
	notifiers []Notifier
	publisher SpotPublisher
	criteria  domain.Criteria
	clock     clockwork.Clock
	dryRun    bool
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(source SpotSource, tokens TokenSource, enricher *Enricher, notifiers []Notifier, criteria domain.Criteria,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		tokens:    tokens,
		enricher:  enricher,
		notifiers: notifiers,
		criteria:  criteria,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful run yet")
	}
	return nil
}

// RunOnce performs a single stateless run. Feed, normalization, key, and
// lookup transport failures abort the run before anything is sent.
func (p *Pipeline) RunOnce(ctx context.Context) (res Result, err error) {
	res.RunID = uuid.NewString()
	logger := p.logger.With("run_id", res.RunID)
	start := p.clock.Now()

	defer func() {
		p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
		if err != nil {
			p.metrics.Runs.WithLabelValues("error").Inc()
			return
		}
		p.metrics.Runs.WithLabelValues("success").Inc()
		p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
		p.ready.Store(true)
	}()

	now := start.UTC()

	records, err := p.source.FetchSpots(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch spots: %w", err)
	}
	spots, err := domain.NormalizeSpots(records)
	if err != nil {
		return res, fmt.Errorf("normalize spots: %w", err)
	}
	res.Fetched = len(spots)
	p.metrics.SpotsFetched.Add(float64(len(spots)))

	matched := domain.SelectSpots(spots, p.criteria, now)
	res.Matched = len(matched)
	p.metrics.SpotsMatched.Add(float64(len(matched)))
	logger.Info("spots filtered",
		"fetched", len(spots),
		"matched", len(matched),
		"cutoff", p.criteria.Cutoff(now).Format(time.RFC3339),
	)
	if len(matched) == 0 {
		return res, nil
	}

	// The key is tied to the local calendar day.
	key, err := p.tokens.Token(ctx, domain.DateOf(start))
	if err != nil {
		return res, err
	}

	enriched, err := p.enricher.Enrich(ctx, matched, key)
	if err != nil {
		return res, fmt.Errorf("enrich spots: %w", err)
	}

	res.Batch = domain.ComposeBatch(enriched, now)

	if p.publisher != nil {
		if perr := p.publisher.PublishSpots(ctx, enriched, now); perr != nil {
			logger.Warn("publish spots failed", "error", perr)
			p.metrics.Notifications.WithLabelValues("kafka", "error").Inc()
		} else {
			p.metrics.Notifications.WithLabelValues("kafka", "success").Inc()
		}
	}

	if p.dryRun {
		for _, line := range res.Batch.Lines {
			logger.Info("dry run", "line", line)
		}
		return res, nil
	}

	return res, p.notify(ctx, logger, res.Batch)
}

// notify hands the batch to every channel. An empty batch is never sent.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, batch domain.NotificationBatch) error {
	if batch.Empty() {
		return nil
	}
	msg := batch.Message()

	var errs []error
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			logger.Error("notification failed", "channel", n.Name(), "error", err)
			p.metrics.Notifications.WithLabelValues(n.Name(), "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		p.metrics.Notifications.WithLabelValues(n.Name(), "success").Inc()
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	logger.Info("notification batch sent", "lines", len(batch.Lines), "channels", len(p.notifiers))
	return nil
}
