package pipeline

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// seenWindow is how long one alert identity suppresses re-announcement.
	seenWindow = 1 * time.Hour

	// sweepInterval is how often stale identities are dropped from memory.
	sweepInterval = 10 * time.Minute
)

// Deduplicator suppresses repeat sightings of one incident. The queue
// redelivers an un-acked alert on every poll tick and the push socket may
// carry the same event again, so every source funnels its alerts through a
// shared instance before subscribers are notified.
type Deduplicator struct {
	logger *slog.Logger
	window time.Duration

	mu   sync.Mutex
	seen map[string]time.Time

	stop chan struct{}
	done chan struct{}
}

// NewDeduplicator creates a deduplicator and starts its sweep loop.
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	d := &Deduplicator{
		logger: logger,
		window: seenWindow,
		seen:   make(map[string]time.Time),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go d.sweepLoop()

	return d
}

// Observe records a sighting of the given alert identity and reports whether
// it was already seen inside the suppression window. The window slides: an
// incident that keeps arriving keeps being suppressed.
func (d *Deduplicator) Observe(key string) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	last, known := d.seen[key]
	d.seen[key] = now

	return known && now.Sub(last) <= d.window
}

func (d *Deduplicator) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	defer close(d.done)

	for {
		select {
		case <-ticker.C:
			d.sweep(time.Now())
		case <-d.stop:
			return
		}
	}
}

// sweep drops identities whose last sighting fell out of the window.
func (d *Deduplicator) sweep(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dropped := 0
	for key, last := range d.seen {
		if now.Sub(last) > d.window {
			delete(d.seen, key)
			dropped++
		}
	}

	if dropped > 0 {
		d.logger.Debug("dropped stale alert identities",
			slog.Int("dropped", dropped),
			slog.Int("tracked", len(d.seen)))
	}
}

// Stop ends the sweep loop and waits for it to exit.
func (d *Deduplicator) Stop() {
	close(d.stop)
	<-d.done
}
