package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	UpstreamFailureTotal       = "upstream_failure_total"
	DropEventTotal             = "drop_event_total"
	UploadBytesTotal           = "upload_bytes_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "status_code"}),
		UpstreamFailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: UpstreamFailureTotal,
			Help: "Count of failed calls to the search api, the llm and the object store",
		}, []string{"upstream"}),
		DropEventTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: DropEventTotal,
			Help: "Count of drop lifecycle events",
		}, []string{"type"}),
		UploadBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: UploadBytesTotal,
			Help: "Bytes of uploaded media",
		}, []string{"type"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "status_code"}),
	}
)
