package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
	"github.com/couchcryptid/pota-spot-hunter/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	records []domain.FeedRecord
	err     error
}

func (m *mockSource) FetchSpots(_ context.Context) ([]domain.FeedRecord, error) {
	return m.records, m.err
}

type mockTokens struct {
	calls int
	days  []domain.Date
	err   error
}

func (m *mockTokens) Token(_ context.Context, today domain.Date) (string, error) {
	m.calls++
	m.days = append(m.days, today)
	if m.err != nil {
		return "", m.err
	}
	return "session-key", nil
}

type mockLookup struct {
	identities map[string]domain.Identity
	errs       map[string]error
	calls      []string
}

func (m *mockLookup) Lookup(_ context.Context, callsign, key string) (domain.Identity, error) {
	m.calls = append(m.calls, callsign+"/"+key)
	if err := m.errs[callsign]; err != nil {
		return domain.Identity{}, err
	}
	if id, ok := m.identities[callsign]; ok {
		return id, nil
	}
	return domain.ResolveIdentity("", "", ""), nil
}

type mockNotifier struct {
	name     string
	messages []string
	err      error
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Notify(_ context.Context, message string) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message)
	return nil
}

type mockPublisher struct {
	spots []domain.EnrichedSpot
	err   error
}

func (m *mockPublisher) PublishSpots(_ context.Context, spots []domain.EnrichedSpot, _ time.Time) error {
	m.spots = append(m.spots, spots...)
	return m.err
}

// --- helpers ---

var testNow = time.Date(2024, time.June, 1, 18, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(id int64, call, mode, region string, freq float64, age time.Duration) domain.FeedRecord {
	f := domain.FeedNumber(freq)
	lat, lon := 19.42, -155.29
	return domain.FeedRecord{
		SpotID:       &id,
		Activator:    call,
		Frequency:    &f,
		Mode:         mode,
		Reference:    "US-0001",
		SpotTime:     testNow.Add(-age).Format("2006-01-02T15:04:05"),
		Name:         "Hawaii Volcanoes National Park",
		LocationDesc: region,
		Latitude:     &lat,
		Longitude:    &lon,
	}
}

func testCriteria(t *testing.T, window time.Duration) domain.Criteria {
	t.Helper()
	c, err := domain.NewCriteria(
		[]domain.Region{domain.RegionUSRI, domain.RegionUSHI},
		[]domain.Mode{domain.ModeFT4, domain.ModeFT8},
		window,
	)
	require.NoError(t, err)
	return c
}

type fixture struct {
	source   *mockSource
	tokens   *mockTokens
	lookup   *mockLookup
	notifier *mockNotifier
	metrics  *observability.Metrics
	pipeline *pipeline.Pipeline
}

func newFixture(t *testing.T, records []domain.FeedRecord, opts ...pipeline.Option) *fixture {
	t.Helper()
	f := &fixture{
		source:   &mockSource{records: records},
		tokens:   &mockTokens{},
		lookup:   &mockLookup{identities: map[string]domain.Identity{}, errs: map[string]error{}},
		notifier: &mockNotifier{name: "pushover"},
		metrics:  observability.NewMetricsForTesting(),
	}
	enricher := pipeline.NewEnricher(f.lookup, discardLogger(), f.metrics)
	f.pipeline = pipeline.New(f.source, f.tokens, enricher, []pipeline.Notifier{f.notifier},
		testCriteria(t, 10*time.Minute), clockwork.NewFakeClockAt(testNow), discardLogger(), f.metrics, opts...)
	return f
}

// --- tests ---

func TestRunOnce_MatchingSpotNotified(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 14074.0, 3*time.Minute)})
	f.lookup.identities["KH6ABC"] = domain.ResolveIdentity("Jane", "Doe", "")

	res, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 1, res.Matched)
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t,
		"[US-HI FT8 US-0001] KH6ABC, Jane Doe, was at Hawaii Volcanoes National Park on 20m (-03:00)",
		f.notifier.messages[0])
	assert.Contains(t, f.notifier.messages[0], "20m")
	assert.Equal(t, []string{"KH6ABC/session-key"}, f.lookup.calls)
	assert.NoError(t, f.pipeline.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Runs.WithLabelValues("success")), 0)
}

func TestRunOnce_UnwantedModeSkipsEverything(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "SSB", "US-HI", 14250, 3*time.Minute)})

	res, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, res.Matched)
	assert.True(t, res.Batch.Empty())
	assert.Empty(t, f.notifier.messages, "no dispatch for an empty batch")
	assert.Zero(t, f.tokens.calls, "no key needed when nothing matched")
	assert.Empty(t, f.lookup.calls)
}

func TestRunOnce_OrdersNewestFirstAndRepeatsLookups(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{
		record(1, "KH6ABC", "FT8", "US-HI", 14074, 8*time.Minute),
		record(2, "W1XYZ", "FT4", "US-RI", 7047.5, time.Minute),
		record(3, "KH6ABC", "FT8", "US-HI", 21074, 4*time.Minute),
		record(4, "VE3AAA", "FT8", "US-CA", 14074, time.Minute),
	})

	res, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 3, res.Matched)
	want := []string{"W1XYZ/session-key", "KH6ABC/session-key", "KH6ABC/session-key"}
	if diff := cmp.Diff(want, f.lookup.calls); diff != "" {
		t.Errorf("lookup calls mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Batch.Lines, 3)
	assert.Contains(t, res.Batch.Lines[0], "W1XYZ, Not Found")
	assert.Contains(t, res.Batch.Lines[1], "on 15m (-04:00)")
	assert.Contains(t, res.Batch.Lines[2], "on 20m (-08:00)")
	assert.Equal(t, 1, f.tokens.calls)
}

func TestRunOnce_LookupServerErrorDegrades(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{
		record(1, "KH6ABC", "FT8", "US-HI", 14074, 2*time.Minute),
		record(2, "W1XYZ", "FT8", "US-RI", 14074, 3*time.Minute),
	})
	f.lookup.identities["KH6ABC"] = domain.LookupFailure(500, "Internal Server Error")
	f.lookup.identities["W1XYZ"] = domain.ResolveIdentity("John", "Smith", "")

	res, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, res.Batch.Lines, 2)
	assert.Contains(t, res.Batch.Lines[0], "KH6ABC, ERROR: 500: Internal Server Error,")
	assert.Contains(t, res.Batch.Lines[1], "W1XYZ, John Smith,")
	require.Len(t, f.notifier.messages, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Lookups.WithLabelValues("error")), 0)
}

func TestRunOnce_FatalErrors(t *testing.T) {
	match := []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 14074, 2*time.Minute)}

	tests := []struct {
		name    string
		setup   func(f *fixture)
		errText string
	}{
		{
			name:    "feed failure",
			setup:   func(f *fixture) { f.source.err = errors.New("pota feed error: status 502") },
			errText: "fetch spots",
		},
		{
			name: "invalid record",
			setup: func(f *fixture) {
				f.source.records = []domain.FeedRecord{{Activator: "KH6ABC"}}
			},
			errText: "normalize spots",
		},
		{
			name:    "key issuance failure",
			setup:   func(f *fixture) { f.tokens.err = errors.New("issue qrz key: Username/password incorrect") },
			errText: "Username/password incorrect",
		},
		{
			name:    "lookup transport failure",
			setup:   func(f *fixture) { f.lookup.errs["KH6ABC"] = errors.New("dial tcp: connection refused") },
			errText: "enrich spots",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, match)
			tt.setup(f)

			_, err := f.pipeline.RunOnce(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
			assert.Empty(t, f.notifier.messages, "nothing is sent when a run aborts")
			assert.Error(t, f.pipeline.CheckReadiness(context.Background()))
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Runs.WithLabelValues("error")), 0)
		})
	}
}

func TestRunOnce_KeyUsesCalendarDay(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 14074, 2*time.Minute)})

	_, err := f.pipeline.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Date{{Year: 2024, Month: time.June, Day: 1}}, f.tokens.days)
}

func TestRunOnce_DryRunDoesNotNotify(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 14074, 2*time.Minute)}, pipeline.WithDryRun())

	res, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Len(t, res.Batch.Lines, 1)
	assert.Empty(t, f.notifier.messages)
}

func TestRunOnce_NotifierFailureReturned(t *testing.T) {
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 14074, 2*time.Minute)})
	f.notifier.err = fmt.Errorf("pushover request: %w", errors.New("connection reset"))

	_, err := f.pipeline.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pushover: pushover request: connection reset")
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues("pushover", "error")), 0)
}

func TestRunOnce_PublisherFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 14074, 2*time.Minute)}, pipeline.WithPublisher(pub))

	_, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Len(t, pub.spots, 1)
	assert.Len(t, f.notifier.messages, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues("kafka", "error")), 0)
}

func TestRunOnce_PublishesEnrichedSpots(t *testing.T) {
	pub := &mockPublisher{}
	f := newFixture(t, []domain.FeedRecord{record(1, "KH6ABC", "FT8", "US-HI", 146520, 2*time.Minute)}, pipeline.WithPublisher(pub))
	f.lookup.identities["KH6ABC"] = domain.ResolveIdentity("", "", "K1ABC")

	_, err := f.pipeline.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, pub.spots, 1)
	assert.Equal(t, "K1ABC", pub.spots[0].Identity.String())
	assert.False(t, pub.spots[0].Band.Mapped())
	assert.Equal(t, domain.RegionUSHI, pub.spots[0].Location)
}

func TestCheckReadiness_BeforeFirstRun(t *testing.T) {
	f := newFixture(t, nil)
	assert.Error(t, f.pipeline.CheckReadiness(context.Background()))

	_, err := f.pipeline.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NoError(t, f.pipeline.CheckReadiness(context.Background()))
}
