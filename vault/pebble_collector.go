package vault

import (
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreCollector exposes the health of the underlying pebble store:
// compaction debt, memtable pressure and WAL volume. Register it alongside
// the vault counters.
type StoreCollector struct {
	db    *pebble.DB
	descs []storeDesc
}

type storeDesc struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(m *pebble.Metrics) float64
}

func NewStoreCollector(v *Vault) *StoreCollector {
	gauge := prometheus.GaugeValue
	counter := prometheus.CounterValue
	mk := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("hindsight_vault_store_"+name, help, nil, nil)
	}
	return &StoreCollector{
		db: v.db,
		descs: []storeDesc{
			{mk("compactions_total", "Compactions performed"), counter,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.Count) }},
			{mk("compaction_debt_bytes", "Bytes to compact before a stable state"), gauge,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.EstimatedDebt) }},
			{mk("memtable_size_bytes", "Current memtable size"), gauge,
				func(m *pebble.Metrics) float64 { return float64(m.MemTable.Size) }},
			{mk("memtable_count", "Current memtable count"), gauge,
				func(m *pebble.Metrics) float64 { return float64(m.MemTable.Count) }},
			{mk("wal_size_bytes", "Live WAL size"), gauge,
				func(m *pebble.Metrics) float64 { return float64(m.WAL.Size) }},
			{mk("wal_bytes_written_total", "Physical bytes written to the WAL"), counter,
				func(m *pebble.Metrics) float64 { return float64(m.WAL.BytesWritten) }},
		},
	}
}

func (sc *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range sc.descs {
		ch <- d.desc
	}
}

func (sc *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	metrics := sc.db.Metrics()
	for _, d := range sc.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, d.kind, d.value(metrics))
	}
}
