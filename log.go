package probe

import (
	"io"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/lmittmann/tint"
)

// NewLogger returns a tint backed logger. Probes log to stderr only; stdout is
// reserved for the line a runner observes.
func NewLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}))
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}
	return level, nil
}
