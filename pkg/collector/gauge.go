package collector

import (
	"sort"
	"time"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/servicebus"
)

const (
	MetricMessagesTotal                = "queue.messages.total"
	MetricMessagesActive               = "queue.messages.active"
	MetricMessagesScheduled            = "queue.messages.scheduled"
	MetricMessagesDeadLettered         = "queue.messages.dead_lettered"
	MetricMessagesTransfer             = "queue.messages.transfer"
	MetricMessagesTransferDeadLettered = "queue.messages.transfer_dead_lettered"

	// metricPrefix is prepended to the name of each metric a queue
	// supports.
	//
	metricPrefix = "queue.metrics."
)

// Gauge is a single observation produced by a collection pass.
//
type Gauge struct {
	Name  string
	Value float64

	// Tags are `key:value` (or bare) strings qualifying the observation.
	//
	Tags []string

	// Timestamp is the time the observation refers to. Zero means "now",
	// i.e., whenever the observation is consumed.
	//
	Timestamp time.Time
}

// QueueGauges maps the counters of `queue` to one gauge each.
//
func QueueGauges(queue servicebus.Queue, tags []string) []Gauge {
	d := queue.CountDetails

	return []Gauge{
		{Name: MetricMessagesTotal, Value: float64(queue.MessageCount), Tags: tags},
		{Name: MetricMessagesActive, Value: float64(d.ActiveMessageCount), Tags: tags},
		{Name: MetricMessagesScheduled, Value: float64(d.ScheduledMessageCount), Tags: tags},
		{Name: MetricMessagesDeadLettered, Value: float64(d.DeadLetterMessageCount), Tags: tags},
		{Name: MetricMessagesTransfer, Value: float64(d.TransferMessageCount), Tags: tags},
		{Name: MetricMessagesTransferDeadLettered, Value: float64(d.TransferDeadLetterMessageCount), Tags: tags},
	}
}

// MetricGauge reduces the data points of `metric` to a single gauge at
// `timestamp`: the most recent point's `Max` for metrics aggregated by
// maximum, its `Total` otherwise, or 0 if there are no points at all.
//
func MetricGauge(
	metric servicebus.MetricProperties,
	values []servicebus.MetricValue,
	tags []string,
	timestamp time.Time,
) Gauge {
	g := Gauge{
		Name:      metricPrefix + metric.Name,
		Tags:      tags,
		Timestamp: timestamp,
	}

	latest, found := latestValue(values)
	if !found {
		return g
	}

	switch metric.PrimaryAggregation {
	case servicebus.AggregationMax:
		g.Value = latest.Max
	default:
		g.Value = latest.Total
	}

	return g
}

// latestValue picks the data point with the greatest timestamp. Points that
// share a timestamp (or have none) keep the order the API gave them, so the
// last of those wins.
//
func latestValue(values []servicebus.MetricValue) (servicebus.MetricValue, bool) {
	if len(values) == 0 {
		return servicebus.MetricValue{}, false
	}

	sorted := make([]servicebus.MetricValue, len(values))
	copy(sorted, values)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	return sorted[len(sorted)-1], true
}

func withTag(tags []string, tag string) []string {
	res := make([]string, 0, len(tags)+1)
	res = append(res, tags...)

	return append(res, tag)
}
