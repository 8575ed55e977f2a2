package stats

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"obench/pkg/logger"
	"obench/pkg/safe"
)

// ServeMetrics starts a /metrics HTTP endpoint on addr, in the style of the
// teacher's bootstrap metrics listener, and returns the *http.Server so the
// caller can shut it down. The server is started on its own panic-recovering
// goroutine.
func ServeMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	safe.Go(func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "metrics server stopped", zap.Error(err))
		}
	})
	return srv
}

// Reporter prints a periodic stdout summary of an Aggregator's snapshot,
// in the load-test-harness style of goovo's bench-core printResults.
type Reporter struct {
	agg      *Aggregator
	interval time.Duration
}

// NewReporter builds a reporter that prints every interval.
func NewReporter(agg *Aggregator, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Reporter{agg: agg, interval: interval}
}

// Run prints snapshots until ctx is cancelled, then prints one final
// summary before returning.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var last Snapshot
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.print(r.agg.Snapshot(), start, last)
			return
		case <-ticker.C:
			cur := r.agg.Snapshot()
			r.print(cur, start, last)
			last = cur
		}
	}
}

func (r *Reporter) print(cur Snapshot, start time.Time, prev Snapshot) {
	elapsed := time.Since(start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(cur.Processed) / elapsed
	}
	fmt.Printf(
		"[obench] t=%.1fs processed=%d (%.0f/s) trades=%d volume=%d rejects=%d cancel_miss=%d done_fill=%d queue_full=%d\n",
		elapsed, cur.Processed, rate, cur.Trades, cur.Volume, cur.Rejects, cur.CancelMisses, cur.DoneFills, cur.QueueFull,
	)
}
