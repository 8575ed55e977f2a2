package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RateLimitBlockTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obench",
			Name:      "ratelimit_block_total",
			Help:      "Total number of generator emissions blocked by the rate limiter.",
		},
		[]string{"worker"},
	)
)

func MustRegister() {
	prometheus.MustRegister(RateLimitBlockTotal)
}
