package metrics

import (
	"time"
)

// DatabaseStats is the slice of *burrow.Database the collector polls. It
// exists so pkg/metrics doesn't import pkg/burrow, which itself imports
// pkg/metrics to record commit counters, the same interface-inversion
// used between pkg/txn and pkg/cache.
type DatabaseStats interface {
	CacheEntryCounts() map[string]int
	ObjectCount() int
	UsageBytes() int64
}

// Collector periodically polls a DatabaseStats for gauge-style metrics
// that aren't naturally updated on the hot commit path (cache occupancy,
// object counts).
type Collector struct {
	db     DatabaseStats
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector bound to db.
func NewCollector(db DatabaseStats) *Collector {
	return &Collector{
		db:     db,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectCacheMetrics()
	c.collectObjectMetrics()
	c.collectUsageMetrics()
}

func (c *Collector) collectCacheMetrics() {
	for relName, count := range c.db.CacheEntryCounts() {
		RelationCacheEntries.WithLabelValues(relName).Set(float64(count))
	}
}

func (c *Collector) collectObjectMetrics() {
	ObjectsTotal.Set(float64(c.db.ObjectCount()))
}

func (c *Collector) collectUsageMetrics() {
	DatabaseUsageBytes.Set(float64(c.db.UsageBytes()))
}
