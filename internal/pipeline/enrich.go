package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
)

// Enricher attaches an operator identity and a band to each selected spot.
type Enricher struct {
	lookup  IdentityLookup
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEnricher creates an Enricher backed by the given identity lookup.
func NewEnricher(lookup IdentityLookup, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{lookup: lookup, logger: logger, metrics: metrics}
}

// Enrich looks up every spot's activator in order, one call per spot, even
// when a callsign repeats. A lookup rejected by the server is already an
// error Identity and does not stop the loop; any returned error aborts it.
func (e *Enricher) Enrich(ctx context.Context, spots []domain.Spot, key string) ([]domain.EnrichedSpot, error) {
	out := make([]domain.EnrichedSpot, 0, len(spots))
	for _, s := range spots {
		id, err := e.lookup.Lookup(ctx, s.Activator, key)
		if err != nil {
			e.metrics.Lookups.WithLabelValues("transport_error").Inc()
			return nil, err
		}
		e.metrics.Lookups.WithLabelValues(string(id.Status)).Inc()

		band := domain.ClassifyBand(s.Frequency)
		if !band.Mapped() {
			e.logger.Warn("frequency outside known bands", "activator", s.Activator, "frequency_khz", s.Frequency)
		}
		if id.Status == domain.IdentityError {
			e.logger.Warn("identity lookup degraded", "activator", s.Activator, "identity", id.String())
		}

		out = append(out, domain.EnrichedSpot{Spot: s, Identity: id, Band: band})
	}
	return out, nil
}
