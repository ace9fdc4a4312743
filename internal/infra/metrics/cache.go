package metrics

import "github.com/prometheus/client_golang/prometheus"

// Plan catalog cache names and lookup results.
const (
	CachePlan     = "plan"
	CachePlanList = "plan_list"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

func init() { register(cacheRequestsTotal) }

// Misses include lookups that fell through to Postgres after a Redis error;
// those are also counted once under result="error".
var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Plan catalog cache lookups by cache and result.",
	},
	[]string{"cache", "result"},
)

func IncCacheRequest(cache, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cache), norm(result)).Inc()
}
