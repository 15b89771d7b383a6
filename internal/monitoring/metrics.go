package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	queueJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_joins_total",
			Help: "Queue join attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	ticketScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Ticket scans by result code",
		},
		[]string{"result"},
	)

	walkUpSales = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "walkup_sales_total",
			Help: "Completed walk-up sales",
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordQueueJoin(source, outcome string) {
	queueJoins.WithLabelValues(source, outcome).Inc()
}

func RecordTicketScan(result string) {
	ticketScans.WithLabelValues(result).Inc()
}

func RecordWalkUpSale() {
	walkUpSales.Inc()
}

// RequestMetrics observes every request's latency under its route
// template so path params don't explode label cardinality.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
