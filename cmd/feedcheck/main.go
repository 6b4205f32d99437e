// Command feedcheck validates a saved or live POTA activator feed offline:
// every record must normalize, frequencies outside the HF band plan are
// reported, and the spots that the given criteria would select are listed
// as they would appear in a notification (without QRZ lookups).
//
// Usage:
//
//	go run ./cmd/feedcheck -feed internal/pipeline/testdata/activator_feed.json \
//	  -now 2024-06-01T18:30:00Z -locations US-RI,US-HI -modes FT8
//
//	go run ./cmd/feedcheck -url https://api.pota.app/spot/activator/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/adapter/pota"
	"github.com/couchcryptid/pota-spot-hunter/internal/config"
	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	"github.com/jonboulle/clockwork"
)

type options struct {
	feedPath  string
	feedURL   string
	locations string
	modes     string
	window    string
	now       string
}

// phase tracks pass/fail for a validation phase. Notes are informational.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts options
	flag.StringVar(&opts.feedPath, "feed", "", "path to a saved activator feed JSON file")
	flag.StringVar(&opts.feedURL, "url", "", "fetch the feed from this URL instead of a file")
	flag.StringVar(&opts.locations, "locations", "US-RI,US-HI,US-FL,US-OH", "comma-separated wanted location codes")
	flag.StringVar(&opts.modes, "modes", "FT4,FT8", "comma-separated wanted modes")
	flag.StringVar(&opts.window, "window", "5m", "recency window")
	flag.StringVar(&opts.now, "now", "", "evaluate recency at this RFC 3339 instant (default: current time)")
	flag.Parse()

	if (opts.feedPath == "") == (opts.feedURL == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -feed or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(context.Background(), os.Stdout, opts))
}

func run(ctx context.Context, w io.Writer, opts options) int {
	criteria, err := config.ParseCriteria(opts.locations, opts.modes, opts.window)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	clock := clockwork.NewRealClock()
	if opts.now != "" {
		at, err := time.Parse(time.RFC3339, opts.now)
		if err != nil {
			fmt.Fprintf(w, "FATAL: invalid -now: %v\n", err)
			return 1
		}
		clock = clockwork.NewFakeClockAt(at)
	}
	now := clock.Now().UTC()

	raws, err := loadFeed(ctx, opts)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load feed: %v\n", err)
		return 1
	}

	fmt.Fprintln(w, "=== POTA Feed Check ===")
	fmt.Fprintf(w, "Records: %d, evaluated at %s\n\n", len(raws), now.Format(time.RFC3339))

	recordPhase, spots := validateRecords(raws)
	phases := []*phase{
		recordPhase,
		checkBands(spots),
		previewMatches(spots, criteria, now),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-24s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nFeed OK.")
		return 0
	}
	fmt.Fprintln(w, "\nFeed check FAILED.")
	return 1
}

// loadFeed returns the feed array with elements undecoded. Only a body that
// is not a JSON array at all is fatal.
func loadFeed(ctx context.Context, opts options) ([]json.RawMessage, error) {
	if opts.feedURL != "" {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		return pota.NewClient(opts.feedURL, logger).FetchRaw(ctx)
	}
	data, err := os.ReadFile(opts.feedPath)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", opts.feedPath, err)
	}
	return raws, nil
}

// validateRecords decodes and normalizes every record independently, so one
// bad record does not hide the rest.
func validateRecords(raws []json.RawMessage) (*phase, []domain.Spot) {
	p := &phase{name: "Record validation"}
	spots := make([]domain.Spot, 0, len(raws))
	for i, raw := range raws {
		rec, err := domain.DecodeFeedRecord(raw)
		if err != nil {
			p.errorf("record %d (spotId ?): %v", i, err)
			continue
		}
		s, err := domain.NormalizeSpot(rec)
		if err != nil {
			id := "?"
			if rec.SpotID != nil {
				id = fmt.Sprint(*rec.SpotID)
			}
			p.errorf("record %d (spotId %s): %v", i, id, err)
			continue
		}
		spots = append(spots, s)
	}
	return p, spots
}

func checkBands(spots []domain.Spot) *phase {
	p := &phase{name: "Band mapping"}
	counts := map[domain.BandName]int{}
	for _, s := range spots {
		b := domain.ClassifyBand(s.Frequency)
		counts[b.Name]++
		if !b.Mapped() {
			p.notef("spot %d %s: %s", s.ID, s.Activator, b)
		}
	}
	if n := counts[domain.BandUnmapped]; n > 0 {
		p.notef("%d of %d spots outside the HF band plan", n, len(spots))
	}
	return p
}

func previewMatches(spots []domain.Spot, c domain.Criteria, now time.Time) *phase {
	p := &phase{name: "Criteria match"}
	matched := domain.SelectSpots(spots, c, now)
	p.notef("%d of %d spots match (cutoff %s)", len(matched), len(spots), c.Cutoff(now).Format(time.RFC3339))
	for _, s := range matched {
		line := domain.ComposeLine(domain.EnrichedSpot{
			Spot:     s,
			Band:     domain.ClassifyBand(s.Frequency),
			Identity: domain.ResolveIdentity("", "", ""),
		}, now)
		p.notef("%s", line)
	}
	return p
}
