// Package metrics holds the exported disk usage gauge and the exporter's own
// instrumentation.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DiskUsageName is the fully-qualified name of the exported gauge.
const DiskUsageName = "redpanda_topic_disk_usage_bytes"

const diskUsageHelp = "Disk usage in bytes per topic"

// LabelSet identifies one disk usage series. Partition is empty for
// topic-level series.
type LabelSet struct {
	Topic     string
	Partition string
}

// TopicLabels returns the label set {topic}.
func TopicLabels(topic string) LabelSet {
	return LabelSet{Topic: topic}
}

// PartitionLabels returns the label set {topic, partition}.
func PartitionLabels(topic string, partition int64) LabelSet {
	return LabelSet{Topic: topic, Partition: strconv.FormatInt(partition, 10)}
}

// IsPartition reports whether l carries a partition label.
func (l LabelSet) IsPartition() bool {
	return l.Partition != ""
}

func (l LabelSet) String() string {
	if l.IsPartition() {
		return fmt.Sprintf("{topic=%q, partition=%q}", l.Topic, l.Partition)
	}
	return fmt.Sprintf("{topic=%q}", l.Topic)
}

// Observation is one measured size for one label set.
type Observation struct {
	Labels LabelSet
	Value  int64
}

// GaugeState holds the last written value of every disk usage series seen
// since startup. The collector is its only writer; scrapes read it through
// the prometheus.Collector interface.
type GaugeState struct {
	mu     sync.RWMutex
	values map[LabelSet]int64

	topicDesc     *prometheus.Desc
	partitionDesc *prometheus.Desc
}

// NewGaugeState creates an empty GaugeState.
func NewGaugeState() *GaugeState {
	return &GaugeState{
		values:        make(map[LabelSet]int64),
		topicDesc:     prometheus.NewDesc(DiskUsageName, diskUsageHelp, []string{"topic"}, nil),
		partitionDesc: prometheus.NewDesc(DiskUsageName, diskUsageHelp, []string{"topic", "partition"}, nil),
	}
}

// Apply overwrites every observed series under a single lock, so a scrape
// sees all of the batch or none of it. It returns the number of writes.
func (g *GaugeState) Apply(obs []Observation) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range obs {
		g.values[o.Labels] = o.Value
	}
	return len(obs)
}

// RetainTopics drops every series whose topic is not in keep and returns how
// many were dropped.
func (g *GaugeState) RetainTopics(keep map[string]struct{}) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for l := range g.values {
		if _, ok := keep[l.Topic]; !ok {
			delete(g.values, l)
			removed++
		}
	}
	return removed
}

// Len returns the number of series held.
func (g *GaugeState) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.values)
}

// Snapshot returns every series ordered by topic, topic-level series first,
// then partitions in numeric order.
func (g *GaugeState) Snapshot() []Observation {
	g.mu.RLock()
	out := make([]Observation, 0, len(g.values))
	for l, v := range g.values {
		out = append(out, Observation{Labels: l, Value: v})
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Labels, out[j].Labels
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		if len(a.Partition) != len(b.Partition) {
			return len(a.Partition) < len(b.Partition)
		}
		return a.Partition < b.Partition
	})
	return out
}

// Describe sends nothing, which registers GaugeState as an unchecked
// collector. Series with and without a partition label share one metric
// name, and a checked registration would reject the second descriptor.
func (g *GaugeState) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (g *GaugeState) Collect(ch chan<- prometheus.Metric) {
	for _, o := range g.Snapshot() {
		if o.Labels.IsPartition() {
			ch <- prometheus.MustNewConstMetric(g.partitionDesc, prometheus.GaugeValue,
				float64(o.Value), o.Labels.Topic, o.Labels.Partition)
			continue
		}
		ch <- prometheus.MustNewConstMetric(g.topicDesc, prometheus.GaugeValue,
			float64(o.Value), o.Labels.Topic)
	}
}
