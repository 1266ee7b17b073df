package pipeline

import (
	"sync"
	"time"
)

// Job represents a scheduled job that can be closed
type Job interface {
	Close() error
}

// JobScheduler is an interface for scheduling recurring jobs
type JobScheduler interface {
	Schedule(jobID string, interval time.Duration, callback func()) (Job, error)
}

// TickerScheduler is the production implementation backed by a time.Ticker.
// The callback runs once immediately on schedule, then on every tick until
// the job is closed. Ticks are delivered to a single goroutine, so a callback
// still running when the next tick arrives delays that tick rather than
// running concurrently with itself.
type TickerScheduler struct{}

// NewTickerScheduler creates a new ticker-backed scheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Schedule starts a recurring job.
func (s *TickerScheduler) Schedule(jobID string, interval time.Duration, callback func()) (Job, error) {
	j := &tickerJob{
		id:   jobID,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(j.done)

		// Immediate first run
		callback()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				callback()
			case <-j.stop:
				return
			}
		}
	}()

	return j, nil
}

type tickerJob struct {
	id   string
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Close stops the job and waits for an in-progress callback to return.
func (j *tickerJob) Close() error {
	j.once.Do(func() {
		close(j.stop)
	})
	<-j.done
	return nil
}
