package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig selects the handler, level, and optional rotating file for NewLogger.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// NewLogger builds a slog.Logger writing to stderr and, when File is set, to
// a log file as well. The file rotates at local midnight and whenever it
// exceeds 50 MB. The returned closer releases the file.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer) {
	return newLogger(cfg, os.Stderr, clockwork.NewRealClock())
}

func newLogger(cfg LogConfig, console io.Writer, clock clockwork.Clock) (*slog.Logger, io.Closer) {
	w := console
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		r := newDailyRotator(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // megabytes
			MaxAge:     30, // days
			MaxBackups: 30,
		}, clock)
		w = io.MultiWriter(console, r)
		closer = r
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler), closer
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// dailyRotator rotates the underlying file on the first write of each new
// local day. lumberjack itself only rotates by size.
type dailyRotator struct {
	mu    sync.Mutex
	lj    *lumberjack.Logger
	clock clockwork.Clock
	day   string
}

func newDailyRotator(lj *lumberjack.Logger, clock clockwork.Clock) *dailyRotator {
	day := clock.Now().Format(time.DateOnly)
	// A file left over from an earlier day rotates on the first write.
	if info, err := os.Stat(lj.Filename); err == nil {
		day = info.ModTime().In(clock.Now().Location()).Format(time.DateOnly)
	}
	return &dailyRotator{lj: lj, clock: clock, day: day}
}

func (r *dailyRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if today := r.clock.Now().Format(time.DateOnly); today != r.day {
		if err := r.lj.Rotate(); err != nil {
			return 0, err
		}
		r.day = today
	}
	return r.lj.Write(p)
}

func (r *dailyRotator) Close() error { return r.lj.Close() }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
