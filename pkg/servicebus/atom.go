package servicebus

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

// feed is the subset of an Atom feed returned by the management API. Element
// namespaces are not pinned: the API mixes the Atom namespace with several
// versions of the servicebus `connect` schema.
//
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	Title   string  `xml:"title"`
	Content content `xml:"content"`
}

type content struct {
	Queue  *queueDescription `xml:"QueueDescription"`
	Metric *metricProperties `xml:"MetricProperties"`
	Values *metricValues     `xml:"MetricValues"`
}

type queueDescription struct {
	MessageCount int64 `xml:"MessageCount"`
	CountDetails struct {
		ActiveMessageCount             int64 `xml:"ActiveMessageCount"`
		DeadLetterMessageCount         int64 `xml:"DeadLetterMessageCount"`
		ScheduledMessageCount          int64 `xml:"ScheduledMessageCount"`
		TransferDeadLetterMessageCount int64 `xml:"TransferDeadLetterMessageCount"`
		TransferMessageCount           int64 `xml:"TransferMessageCount"`
	} `xml:"CountDetails"`
}

type metricProperties struct {
	Name               string `xml:"Name"`
	DisplayName        string `xml:"DisplayName"`
	PrimaryAggregation string `xml:"PrimaryAggregation"`
	Unit               string `xml:"Unit"`
}

type metricValues struct {
	Timestamp xmlTime `xml:"Timestamp"`
	Min       float64 `xml:"Min"`
	Max       float64 `xml:"Max"`
	Average   float64 `xml:"Average"`
	Total     float64 `xml:"Total"`
}

// xmlTime accepts RFC3339 timestamps as well as the zone-less form some
// rollups are reported in, which is taken to be UTC.
//
type xmlTime struct {
	time.Time
}

func (t *xmlTime) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil
	}

	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	} {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("unrecognized timestamp '%s'", s)
}

func decodeFeed(r io.Reader) (*feed, error) {
	f := &feed{}

	if err := xml.NewDecoder(r).Decode(f); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	return f, nil
}

func (f *feed) queues() ([]Queue, error) {
	queues := make([]Queue, 0, len(f.Entries))

	for idx, e := range f.Entries {
		if e.Content.Queue == nil {
			return nil, fmt.Errorf("entry %d: missing QueueDescription", idx)
		}

		name := strings.TrimSpace(e.Title)
		if name == "" {
			return nil, fmt.Errorf("entry %d: missing queue name", idx)
		}

		d := e.Content.Queue
		queues = append(queues, Queue{
			Name:         name,
			MessageCount: d.MessageCount,
			CountDetails: CountDetails{
				ActiveMessageCount:             d.CountDetails.ActiveMessageCount,
				ScheduledMessageCount:          d.CountDetails.ScheduledMessageCount,
				DeadLetterMessageCount:         d.CountDetails.DeadLetterMessageCount,
				TransferMessageCount:           d.CountDetails.TransferMessageCount,
				TransferDeadLetterMessageCount: d.CountDetails.TransferDeadLetterMessageCount,
			},
		})
	}

	return queues, nil
}

func (f *feed) metrics() ([]MetricProperties, error) {
	metrics := make([]MetricProperties, 0, len(f.Entries))

	for idx, e := range f.Entries {
		p := e.Content.Metric
		if p == nil || p.Name == "" {
			return nil, fmt.Errorf("entry %d: missing MetricProperties", idx)
		}

		metrics = append(metrics, MetricProperties{
			Name:               p.Name,
			DisplayName:        p.DisplayName,
			PrimaryAggregation: Aggregation(p.PrimaryAggregation),
			Unit:               p.Unit,
		})
	}

	return metrics, nil
}

func (f *feed) values() ([]MetricValue, error) {
	values := make([]MetricValue, 0, len(f.Entries))

	for idx, e := range f.Entries {
		v := e.Content.Values
		if v == nil {
			return nil, fmt.Errorf("entry %d: missing MetricValues", idx)
		}

		values = append(values, MetricValue{
			Timestamp: v.Timestamp.Time,
			Min:       v.Min,
			Max:       v.Max,
			Average:   v.Average,
			Total:     v.Total,
		})
	}

	return values, nil
}
