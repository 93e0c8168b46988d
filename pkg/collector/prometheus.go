package collector

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/config"
)

const metricsNamespace = "servicebus"

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

var gaugeHelp = map[string]string{
	MetricMessagesTotal:                "number of messages in the queue",
	MetricMessagesActive:               "number of messages available for delivery",
	MetricMessagesScheduled:            "number of messages scheduled for later delivery",
	MetricMessagesDeadLettered:         "number of messages in the dead-letter queue",
	MetricMessagesTransfer:             "number of messages pending transfer to another entity",
	MetricMessagesTransferDeadLettered: "number of messages that failed to be transferred",
}

var (
	upDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "exporter", "up"),
		"whether the last collection from the namespace succeeded",
		[]string{"namespace", "subscription"}, nil,
	)

	durationDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "exporter", "check_duration_seconds"),
		"how long the last collection from the namespace took",
		[]string{"namespace", "subscription"}, nil,
	)

	queueDepthDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "namespace", "queue_depth"),
		"distribution of the number of messages across the queues of "+
			"the namespace",
		[]string{"namespace", "subscription"}, nil,
	)
)

// sanitize makes `s` usable as a prometheus metric or label name.
//
func sanitize(s string) string {
	s = invalidNameChars.ReplaceAllString(s, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}

	return s
}

// metricName maps a gauge name to its prometheus counterpart.
//
//	queue.messages.total -> servicebus_queue_messages_total
//
func metricName(name string) string {
	return prometheus.BuildFQName(metricsNamespace, "", sanitize(name))
}

func helpFor(name string) string {
	if h, found := gaugeHelp[name]; found {
		return h
	}

	return "value of the queue metric '" +
		strings.TrimPrefix(name, metricPrefix) +
		"' over the last reported rollup window"
}

// tagsToLabels turns `key:value` tags into labels, and bare tags into labels
// set to "true". When a key repeats, the last tag wins.
//
func tagsToLabels(tags []string) ([]string, []string) {
	labels := make(map[string]string, len(tags))

	for _, tag := range tags {
		key, value, found := strings.Cut(tag, ":")
		if !found {
			value = "true"
		}

		labels[sanitize(key)] = value
	}

	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	sort.Strings(names)

	values := make([]string, len(names))
	for idx, name := range names {
		values[idx] = labels[name]
	}

	return names, values
}

func toPrometheus(g Gauge) prometheus.Metric {
	names, values := tagsToLabels(g.Tags)

	desc := prometheus.NewDesc(metricName(g.Name), helpFor(g.Name), names, nil)

	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, g.Value, values...)
	if err != nil {
		return prometheus.NewInvalidMetric(desc, err)
	}

	if !g.Timestamp.IsZero() {
		m = prometheus.NewMetricWithTimestamp(g.Timestamp, m)
	}

	return m
}

func boolToFloat64(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

func emitExporterMetrics(
	ch chan<- prometheus.Metric, instance config.Instance, up bool, d time.Duration,
) {
	ch <- prometheus.MustNewConstMetric(
		upDesc,
		prometheus.GaugeValue,
		boolToFloat64(up),
		instance.Namespace, instance.SubscriptionID,
	)

	ch <- prometheus.MustNewConstMetric(
		durationDesc,
		prometheus.GaugeValue,
		d.Seconds(),
		instance.Namespace, instance.SubscriptionID,
	)
}

func emitQueueDepth(
	ch chan<- prometheus.Metric, instance config.Instance, gauges []Gauge,
) {
	summary := NewSummary(depthQuantiles)

	for _, g := range gauges {
		if g.Name == MetricMessagesTotal {
			summary.Insert(g.Value)
		}
	}

	ch <- prometheus.MustNewConstSummary(
		queueDepthDesc,
		summary.Count(), summary.Sum(), summary.Quantiles(),
		instance.Namespace, instance.SubscriptionID,
	)
}
