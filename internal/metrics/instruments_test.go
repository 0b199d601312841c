package metrics

import (
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstruments_ObserveCollection(t *testing.T) {
	g := NewGaugeState()
	i := NewInstruments(g)
	finished := time.Unix(1700000000, 0)

	i.ObserveCollection(false, 2*time.Second, finished)
	i.ObserveCollection(true, time.Second, finished.Add(time.Minute))

	assert.Equal(t, 1.0, promtestutil.ToFloat64(i.collections.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(i.collections.WithLabelValues(ResultAborted)))
	assert.Equal(t, 1700000000.0, promtestutil.ToFloat64(i.lastSuccess), "aborted cycles leave the timestamp alone")
	assert.Equal(t, 1, promtestutil.CollectAndCount(i.collectionDuration))
}

func TestInstruments_UpstreamAndSkips(t *testing.T) {
	i := NewInstruments(NewGaugeState())

	i.ObserveUpstream("list", "ok")
	i.ObserveUpstream("detail", "http_error")
	i.ObserveUpstream("detail", "http_error")
	i.SkipEntries(SkipMalformed, 3)
	i.SkipEntries(SkipDetailFailed, 0)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(i.upstreamRequests.WithLabelValues("list", "ok")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(i.upstreamRequests.WithLabelValues("detail", "http_error")))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(i.skippedEntries.WithLabelValues(SkipMalformed)))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(i.skippedEntries.WithLabelValues(SkipDetailFailed)))
}

func TestInstruments_SeriesTracksState(t *testing.T) {
	g := NewGaugeState()
	i := NewInstruments(g)

	assert.Equal(t, 0.0, promtestutil.ToFloat64(i.series))
	g.Apply([]Observation{
		{Labels: TopicLabels("a"), Value: 1},
		{Labels: PartitionLabels("a", 0), Value: 1},
	})
	assert.Equal(t, 2.0, promtestutil.ToFloat64(i.series))
}

func TestInstruments_NilIsNoop(t *testing.T) {
	var i *Instruments
	assert.NotPanics(t, func() {
		i.ObserveCollection(false, time.Second, time.Now())
		i.ObserveUpstream("list", "ok")
		i.SkipEntries(SkipMalformed, 1)
	})
}
