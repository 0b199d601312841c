// Package poller drives collection cycles on a fixed interval.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sabbasth/rp-exporter/internal/diskusage"
)

// Collector runs one collection cycle.
type Collector interface {
	Collect(ctx context.Context) diskusage.Result
}

// Status describes the most recent collection cycle.
type Status struct {
	At           time.Time `json:"at"`
	Duration     string    `json:"duration"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Topics       int       `json:"topics"`
	Observations int       `json:"observations"`
	Skipped      int       `json:"skipped"`
	Malformed    int       `json:"malformed"`
	Pruned       int       `json:"pruned"`
}

// Poller runs a Collector once at start and then once per interval. Cycles
// never overlap: the next wait starts only after a cycle returns.
type Poller struct {
	collector Collector
	interval  time.Duration
	logger    *zap.Logger

	mu     sync.RWMutex
	last   Status
	ran    bool
	cycles int
}

// New creates a Poller.
func New(collector Collector, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		collector: collector,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. It always returns nil.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller starting", zap.Duration("interval", p.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller shutting down", zap.Int("cycles", p.Cycles()))
			return nil
		case <-timer.C:
			p.record(p.collector.Collect(ctx))
			timer.Reset(p.interval)
		}
	}
}

func (p *Poller) record(res diskusage.Result) {
	st := Status{
		At:           res.StartedAt,
		Duration:     res.Duration.String(),
		Success:      !res.Aborted,
		Topics:       res.Topics,
		Observations: res.Observations,
		Skipped:      res.Skipped,
		Malformed:    res.Malformed,
		Pruned:       res.Pruned,
	}
	if res.Err != nil {
		st.Error = res.Err.Error()
	}

	p.mu.Lock()
	p.last = st
	p.ran = true
	p.cycles++
	p.mu.Unlock()

	p.logger.Debug("collection cycle finished",
		zap.Bool("success", st.Success),
		zap.Duration("duration", res.Duration),
	)
}

// LastCollection returns the status of the most recent cycle. ok is false
// until the first cycle finishes.
func (p *Poller) LastCollection() (st Status, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.ran
}

// Cycles returns the number of finished cycles.
func (p *Poller) Cycles() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cycles
}
