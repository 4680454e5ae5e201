package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	CardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adpiler_sync_cards_total",
			Help: "Cards handled by the metadata sync, by outcome",
		}, []string{"outcome"},
	)
	AttachmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adpiler_upload_attachments_total",
			Help: "Attachments handled by the uploader, by status",
		}, []string{"status"},
	)
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adpiler_request_duration_seconds",
		Help:    "Outbound API request latency seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"api"})
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "adpiler_webhook_queue_depth",
		Help: "Card ids waiting for the webhook sync worker",
	})
)

func init() {
	prometheus.MustRegister(CardsTotal, AttachmentsTotal, RequestDuration, QueueDepth)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveRequest is meant to be deferred with the request start time.
func ObserveRequest(api string, start time.Time) {
	RequestDuration.WithLabelValues(api).Observe(time.Since(start).Seconds())
}

// Push sends the default registry to a Pushgateway under job. Batch runs use
// it since nothing scrapes them.
func Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx)
}
