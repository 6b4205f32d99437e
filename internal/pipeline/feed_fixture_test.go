package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
	"github.com/couchcryptid/pota-spot-hunter/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFeedFixture(t *testing.T) []domain.FeedRecord {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "activator_feed.json"))
	require.NoError(t, err)

	var recs []domain.FeedRecord
	require.NoError(t, json.Unmarshal(data, &recs))
	return recs
}

func TestRunOnce_FeedFixture(t *testing.T) {
	criteria, err := domain.NewCriteria(
		[]domain.Region{domain.RegionUSRI, domain.RegionUSHI, domain.RegionUSFL, domain.RegionUSOH},
		[]domain.Mode{domain.ModeFT4, domain.ModeFT8},
		5*time.Minute,
	)
	require.NoError(t, err)

	lookup := &mockLookup{
		identities: map[string]domain.Identity{"KH6ABC": domain.ResolveIdentity("Jane", "Doe", "")},
		errs:       map[string]error{},
	}
	notifier := &mockNotifier{name: "pushover"}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(
		&mockSource{records: loadFeedFixture(t)},
		&mockTokens{},
		pipeline.NewEnricher(lookup, discardLogger(), metrics),
		[]pipeline.Notifier{notifier},
		criteria,
		clockwork.NewFakeClockAt(testNow),
		discardLogger(),
		metrics,
	)

	res, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Fetched)
	assert.Equal(t, 4, res.Matched)
	assert.Equal(t, []string{
		"[US-RI FT4 US-2065] W1XYZ, Not Found, was at Lincoln Woods State Park on 40m (-00:45)",
		"[US-HI FT8 US-0001] KH6ABC, Jane Doe, was at Hawaii Volcanoes National Park on [ERROR: Not Mapped]: 50313 (-01:00)",
		"[US-HI FT8 US-0001] KH6ABC, Jane Doe, was at Hawaii Volcanoes National Park on 20m (-03:00)",
		"[US-OH FT8 US-1990] W8OH, Not Found, was at Cuyahoga Valley National Park on 80m (-03:30)",
	}, res.Batch.Lines)
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, res.Batch.Message(), notifier.messages[0])
}
