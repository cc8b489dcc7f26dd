package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	registerOnce sync.Once

	chunksSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispenserctl",
			Subsystem: "transfer",
			Name:      "chunks_sent_total",
			Help:      "Chunks written to a dispenser transport.",
		},
		[]string{"transport"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispenserctl",
			Subsystem: "transfer",
			Name:      "bytes_sent_total",
			Help:      "Payload bytes written to a dispenser transport.",
		},
		[]string{"transport"},
	)
	transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispenserctl",
			Subsystem: "transfer",
			Name:      "sessions_total",
			Help:      "Transfer sessions by terminal outcome.",
		},
		[]string{"transport", "outcome"},
	)
	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispenserctl",
			Subsystem: "transfer",
			Name:      "session_duration_seconds",
			Help:      "Transfer session duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(chunksSent, bytesSent, transfers, transferDuration)
	})
}

func RecordChunkSent(transport string, size int) {
	RegisterMetrics()
	chunksSent.WithLabelValues(transport).Inc()
	bytesSent.WithLabelValues(transport).Add(float64(size))
}

func RecordTransfer(transport, outcome string, duration time.Duration) {
	RegisterMetrics()
	transfers.WithLabelValues(transport, outcome).Inc()
	transferDuration.WithLabelValues(transport, outcome).Observe(duration.Seconds())
}

// Handler exposes the metrics registry for scraping.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// ServeMetrics serves /metrics on addr until the returned stop
// function is called. Listen failures are logged, not returned:
// losing the scrape endpoint must not abort a transfer.
func ServeMetrics(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listener starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Str("addr", addr).Err(err).Msg("metrics listener failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
