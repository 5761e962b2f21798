package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Meter metrics
	MeterEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meter_events_total",
			Help: "Total number of events fed into the meter state machine",
		},
		[]string{"service", "event", "outcome"},
	)

	FareUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_units_charged_total",
			Help: "Total number of fare units charged",
		},
		[]string{"service", "kind"},
	)

	PositionSamplesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "position_samples_dropped_total",
			Help: "Total number of position samples discarded",
		},
		[]string{"service", "reason"},
	)

	TripsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trips_completed_total",
			Help: "Total number of acknowledged trips",
		},
		[]string{"service", "tariff"},
	)

	TripFareHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trip_fare_units",
			Help:    "Final fare of completed trips in currency units",
			Buckets: prometheus.ExponentialBuckets(250, 2, 10),
		},
		[]string{"service", "tariff"},
	)

	RecorderDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_recorder_dropped_total",
			Help: "Total number of trip records dropped because the recorder queue was full",
		},
		[]string{"service"},
	)

	MeterStateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meter_state",
			Help: "1 for the current meter state, 0 otherwise",
		},
		[]string{"service", "state"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"service", "operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)

	RabbitMQMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_consumed_total",
			Help: "Total number of messages consumed from RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordMeterEvent records the outcome of a state machine event
func RecordMeterEvent(service, event, outcome string) {
	MeterEventsTotal.WithLabelValues(service, event, outcome).Inc()
}

// RecordFareUnits records charged fare units of the given kind
func RecordFareUnits(service, kind string, units int64) {
	if units <= 0 {
		return
	}
	FareUnitsTotal.WithLabelValues(service, kind).Add(float64(units))
}

// RecordTripCompleted records an acknowledged trip and its final fare
func RecordTripCompleted(service, tariff string, fare int64) {
	TripsCompletedTotal.WithLabelValues(service, tariff).Inc()
	TripFareHistogram.WithLabelValues(service, tariff).Observe(float64(fare))
}

// SetMeterState marks state as the only current meter state
func SetMeterState(service, state string, all ...string) {
	for _, s := range all {
		MeterStateGauge.WithLabelValues(service, s).Set(0)
	}
	MeterStateGauge.WithLabelValues(service, state).Set(1)
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(service, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(service, queue, status).Inc()
}

// RecordRabbitMQConsume records RabbitMQ consume metrics
func RecordRabbitMQConsume(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesConsumed.WithLabelValues(service, queue, status).Inc()
}
