package servicebus

import "time"

// Aggregation is the primary statistical reduction declared by a metric.
//
type Aggregation string

const (
	AggregationTotal Aggregation = "Total"
	AggregationMax   Aggregation = "Max"
)

// Queue describes a queue in a namespace along with its message counters.
//
type Queue struct {
	Name string

	// MessageCount is the total number of messages in the queue.
	//
	MessageCount int64

	CountDetails CountDetails
}

// CountDetails breaks down the messages of a queue by state.
//
type CountDetails struct {
	ActiveMessageCount             int64
	ScheduledMessageCount          int64
	DeadLetterMessageCount         int64
	TransferMessageCount           int64
	TransferDeadLetterMessageCount int64
}

// MetricProperties describes a metric supported for a queue.
//
type MetricProperties struct {
	Name               string
	DisplayName        string
	PrimaryAggregation Aggregation
	Unit               string
}

// MetricValue is a single rollup data point of a metric.
//
type MetricValue struct {
	Timestamp time.Time
	Min       float64
	Max       float64
	Average   float64
	Total     float64
}
