// Package diskusage turns console topic responses into disk usage series.
//
// One call to Collector.Collect is one collection cycle. The cycle fetches
// the topic list, measures every well-formed entry with the configured
// strategy, and writes the resulting observations into a metrics.GaugeState
// in a single batch. Failures never leave a cycle. A failed list request
// aborts the cycle without touching the gauge, and a failed detail request
// skips only its topic.
package diskusage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Sabbasth/rp-exporter/internal/console"
	"github.com/Sabbasth/rp-exporter/internal/metrics"
)

// Strategy selects how a topic is measured.
type Strategy string

const (
	// StrategyAuto measures each entry by what it carries: a logDirSummary
	// yields a topic series, inline partitions yield partition series, and
	// anything else triggers a detail request.
	StrategyAuto Strategy = "auto"
	// StrategySummary emits one topic series per entry from the list response.
	StrategySummary Strategy = "summary"
	// StrategyDetail emits one series per partition, requesting topic detail
	// when the list entry has no inline partitions.
	StrategyDetail Strategy = "detail"
)

// ParseStrategy validates s.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAuto, StrategySummary, StrategyDetail:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("strategy %q must be one of auto, summary, detail", s)
}

// TopicSource is the console API as the collector consumes it.
type TopicSource interface {
	ListTopics(ctx context.Context) (*console.TopicList, error)
	TopicDetail(ctx context.Context, name string) (*console.TopicDetail, error)
}

// Config tunes a Collector.
type Config struct {
	Strategy Strategy
	// PruneMissing drops series of topics absent from a successful list
	// response. Topics that are listed but could not be measured keep their
	// last values.
	PruneMissing bool
}

// Result summarizes one cycle.
type Result struct {
	StartedAt    time.Time
	Duration     time.Duration
	Shape        console.Shape
	Topics       int
	Observations int
	Skipped      int
	Malformed    int
	Pruned       int
	Aborted      bool
	Err          error
}

// Collector runs collection cycles against one console.
type Collector struct {
	source TopicSource
	state  *metrics.GaugeState
	inst   *metrics.Instruments
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Collector writing into state. inst may be nil.
func New(source TopicSource, state *metrics.GaugeState, inst *metrics.Instruments, cfg Config, logger *zap.Logger) *Collector {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyAuto
	}
	return &Collector{
		source: source,
		state:  state,
		inst:   inst,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Collect runs one collection cycle. It never panics on bad input and never
// returns an error; the Result reports what happened.
func (c *Collector) Collect(ctx context.Context) (res Result) {
	res.StartedAt = c.now()
	defer func() {
		res.Duration = c.now().Sub(res.StartedAt)
		c.inst.ObserveCollection(res.Aborted, res.Duration, res.StartedAt.Add(res.Duration))
	}()

	list, err := c.source.ListTopics(ctx)
	c.inst.ObserveUpstream(console.EndpointList, console.Outcome(err))
	if err != nil {
		c.logger.Error("failed to fetch topics", append(errorFields(err), zap.Error(err))...)
		res.Aborted = true
		res.Err = err
		return res
	}

	res.Shape = list.Shape
	if list.Shape == console.ShapeUnknown {
		c.logger.Error("unexpected topic list shape, treating as zero topics")
		res.Aborted = true
		res.Err = errUnknownShape
		return res
	}

	res.Topics = len(list.Topics)
	c.reportIssues(list.Issues, &res)

	b := newBatch()
	for _, topic := range list.Topics {
		if ctx.Err() != nil {
			c.logger.Warn("collection interrupted", zap.Error(ctx.Err()))
			break
		}
		c.measure(ctx, topic, b, &res)
	}

	res.Observations = c.state.Apply(b.observations())

	if c.cfg.PruneMissing {
		listed := make(map[string]struct{}, len(list.Topics))
		for _, topic := range list.Topics {
			listed[topic.Name] = struct{}{}
		}
		res.Pruned = c.state.RetainTopics(listed)
		if res.Pruned > 0 {
			c.logger.Info("pruned series of unlisted topics", zap.Int("series", res.Pruned))
		}
	}

	c.logger.Info("metrics collected successfully",
		zap.Stringer("shape", res.Shape),
		zap.Int("topics", res.Topics),
		zap.Int("observations", res.Observations),
		zap.Int("skipped", res.Skipped),
		zap.Int("malformed", res.Malformed),
	)
	return res
}

var errUnknownShape = errors.New("topic list is neither an array nor an object with a topics array")

type path int

const (
	pathSummary path = iota
	pathInline
	pathDetail
)

// resolve picks how a topic is measured. Partitions carried by the list
// entry are used only when at least one is usable; an empty array falls
// through to the detail endpoint.
func (c *Collector) resolve(t console.Topic) path {
	inline := t.HasPartitions && len(t.Partitions) > 0
	switch c.cfg.Strategy {
	case StrategySummary:
		return pathSummary
	case StrategyDetail:
		if inline {
			return pathInline
		}
		return pathDetail
	default:
		switch {
		case t.HasSummary:
			return pathSummary
		case inline:
			return pathInline
		default:
			return pathDetail
		}
	}
}

func (c *Collector) measure(ctx context.Context, t console.Topic, b *batch, res *Result) {
	switch c.resolve(t) {
	case pathSummary:
		b.add(metrics.TopicLabels(t.Name), t.SizeBytes)
	case pathInline:
		b.addPartitions(t.Name, t.Partitions)
	case pathDetail:
		detail, err := c.source.TopicDetail(ctx, t.Name)
		c.inst.ObserveUpstream(console.EndpointDetail, console.Outcome(err))
		if err != nil {
			c.logger.Error("failed to fetch topic details",
				append(errorFields(err), zap.String("topic", t.Name), zap.Error(err))...)
			res.Skipped++
			c.inst.SkipEntries(metrics.SkipDetailFailed, 1)
			return
		}
		c.reportIssues(detail.Issues, res)
		b.addPartitions(t.Name, detail.Topic.Partitions)
	}
}

func (c *Collector) reportIssues(issues []console.EntryIssue, res *Result) {
	for _, issue := range issues {
		c.logger.Warn("skipping malformed entry",
			zap.Int("index", issue.Index),
			zap.String("topic", issue.Topic),
			zap.String("reason", issue.Reason),
		)
	}
	res.Malformed += len(issues)
	c.inst.SkipEntries(metrics.SkipMalformed, len(issues))
}

func errorFields(err error) []zap.Field {
	var apiErr *console.APIError
	if errors.As(err, &apiErr) {
		return []zap.Field{zap.Int("status", apiErr.StatusCode)}
	}
	return nil
}
