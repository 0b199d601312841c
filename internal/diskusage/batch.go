package diskusage

import (
	"github.com/Sabbasth/rp-exporter/internal/console"
	"github.com/Sabbasth/rp-exporter/internal/metrics"
)

// batch collects a cycle's observations in first-seen order. A repeated
// label set keeps its position and takes the later value.
type batch struct {
	index map[metrics.LabelSet]int
	obs   []metrics.Observation
}

func newBatch() *batch {
	return &batch{index: make(map[metrics.LabelSet]int)}
}

func (b *batch) add(l metrics.LabelSet, value int64) {
	if i, ok := b.index[l]; ok {
		b.obs[i].Value = value
		return
	}
	b.index[l] = len(b.obs)
	b.obs = append(b.obs, metrics.Observation{Labels: l, Value: value})
}

func (b *batch) addPartitions(topic string, parts []console.Partition) {
	for _, p := range parts {
		b.add(metrics.PartitionLabels(topic, p.ID), p.SizeBytes)
	}
}

func (b *batch) observations() []metrics.Observation {
	return b.obs
}
