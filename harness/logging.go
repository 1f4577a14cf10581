package harness

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// LogFileName is the JSON log of a run, written into the results directory.
const LogFileName = "harness.log"

// NewLogger logs at level as text to console and everything down to debug as
// JSON to file. A nil file only logs to console.
func NewLogger(level slog.Level, console io.Writer, file io.Writer) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}
	if file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}
