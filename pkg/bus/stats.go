package bus

// KindStats reports registry totals for one kind.
type KindStats struct {
	Subscriptions int `json:"subscriptions"`
	Active        int `json:"active"`
}

// Stats is a point-in-time snapshot of bus state, consumed by the
// inspector. Counters over time live in the metrics observer, not
// here.
type Stats struct {
	Kinds        map[Kind]KindStats `json:"kinds"`
	Scopes       int                `json:"scopes"`
	UIQueueDepth int                `json:"ui_queue_depth"`
	WorkerQueue  int                `json:"worker_queue_depth"`
	Workers      int                `json:"workers"`
	Closed       bool               `json:"closed"`
}

// Stats snapshots the current registry, scope, and queue state.
func (b *Bus) Stats() Stats {
	return Stats{
		Kinds:        b.registry.counts(),
		Scopes:       b.scopes.count(),
		UIQueueDepth: b.loop.Pending(),
		WorkerQueue:  b.pool.QueueDepth(),
		Workers:      b.pool.Workers(),
		Closed:       b.closed.Load(),
	}
}
