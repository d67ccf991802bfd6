package vault

import "github.com/prometheus/client_golang/prometheus"

// Callers register these with their own registry; the package does not
// touch the default one.

var Reads = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hindsight",
	Subsystem: "vault",
	Name:      "reads",
}, []string{"collection"})

var Writes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hindsight",
	Subsystem: "vault",
	Name:      "writes",
}, []string{"collection"})

var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hindsight",
	Subsystem: "vault",
	Name:      "cache_hits",
}, []string{"collection"})

var Migrations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hindsight",
	Subsystem: "vault",
	Name:      "migrations",
}, []string{"collection", "from"})
