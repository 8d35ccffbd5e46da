package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panelgrid/pkg/pipeline"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// newLogger returns a logger writing to w at level, stamped "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// requestLog times one layout request from submission to answer.
type requestLog struct {
	logger *log.Logger
	id     uint64
	panels int
	start  time.Time
}

func newProgress(l *log.Logger, req protocol.Request) *requestLog {
	return &requestLog{logger: l, id: req.RequestID, panels: len(req.Panels), start: time.Now()}
}

// done logs the answered request with its latency, e.g.
// "layout ready request=3 panels=2 latency=41ms runs=57 total=0.812".
func (r *requestLog) done(res pipeline.Result) {
	kv := []any{"request", r.id, "panels", r.panels, "latency", time.Since(r.start).Round(time.Millisecond)}
	if res.CacheHit {
		kv = append(kv, "cached", true)
	} else {
		kv = append(kv, "runs", res.Stats.Runs, "total", formatScore(res.Stats.Total))
	}
	r.logger.Info("layout ready", kv...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
