// Package collector provides the core functionality of this exporter.
//
// A Check performs one collection pass over a Service Bus namespace: it lists
// the queues, reports their message counters, and for every metric a queue
// supports reports the latest value of the 5-minute rollup ending 15 minutes
// ago. Passes are independent from each other and keep no state.
//
// Collector wraps checks in the Prometheus collector interface, running a pass
// per configured instance whenever a request hits this exporter, allowing us
// to not have to rely on a particular interval defined in this exporter
// (instead, rely on prometheus' scrape interval).
//
package collector
