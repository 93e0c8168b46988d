package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/config"
)

// Collector implements the prometheus Collector interface, running a
// collection pass against every configured instance whenever a prometheus
// scrape is received.
//
type Collector struct {
	instances []config.Instance

	// checkOpts are handed to every Check created at scrape time.
	//
	checkOpts []CheckOption

	// concurrency caps how many instances are collected from at once.
	// Each pass remains sequential on its own.
	//
	concurrency int

	// scrapeTimeout bounds the whole of a scrape.
	//
	scrapeTimeout time.Duration

	log logr.Logger
}

// ensure that we implement prometheus' collector interface.
//
var _ prometheus.Collector = &Collector{}

// Option is a type used by functional arguments to mutate the collector to
// override default behavior.
//
type Option func(c *Collector)

// WithCheckOptions appends options applied to each Check.
//
func WithCheckOptions(v ...CheckOption) Option {
	return func(c *Collector) {
		c.checkOpts = append(c.checkOpts, v...)
	}
}

// WithConcurrency overrides the default of collecting from 4 instances at
// a time. Non-positive values remove the limit.
//
func WithConcurrency(v int) Option {
	return func(c *Collector) {
		c.concurrency = v
	}
}

// WithScrapeTimeout overrides the default one minute deadline of a scrape.
//
func WithScrapeTimeout(v time.Duration) Option {
	return func(c *Collector) {
		c.scrapeTimeout = v
	}
}

// WithLogger overrides the default development logger.
//
func WithLogger(v logr.Logger) Option {
	return func(c *Collector) {
		c.log = v
	}
}

// New instantiates a Collector for `instances`.
//
func New(instances []config.Instance, opts ...Option) (*Collector, error) {
	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	c := &Collector{
		instances:     instances,
		concurrency:   4,
		scrapeTimeout: 1 * time.Minute,
		log:           zapr.NewLogger(defaultLogger.Named("collector")),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.checkOpts = append([]CheckOption{WithCheckLogger(c.log)}, c.checkOpts...)

	return c, nil
}

// Register registers a new collector with the global prometheus collectors
// registry making it available for an exporter to collect our metrics.
//
func Register(instances []config.Instance, opts ...Option) error {
	c, err := New(instances, opts...)
	if err != nil {
		return fmt.Errorf("new: %w", err)
	}

	if err := prometheus.Register(c); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	return nil
}

// Describe implements the Describe function of the Collector interface.
//
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Metric names depend on what each queue supports, so descriptions are
	// only known at collection time: this is an unchecked collector.
}

// Collect implements the Collect function of the Collector interface.
//
// A failing instance is logged and reported through `servicebus_exporter_up`
// without affecting the others.
//
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.scrapeTimeout)
	defer cancel()

	g := &errgroup.Group{}
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	for _, instance := range c.instances {
		instance := instance

		g.Go(func() error {
			c.collectInstance(ctx, instance, ch)
			return nil
		})
	}

	_ = g.Wait()
}

func (c *Collector) collectInstance(
	ctx context.Context, instance config.Instance, ch chan<- prometheus.Metric,
) {
	log := c.log.WithValues(
		"namespace", instance.Namespace,
		"subscription", instance.SubscriptionID,
	)

	start := time.Now()
	gauges, err := NewCheck(instance, c.checkOpts...).Run(ctx)
	duration := time.Since(start)

	if err != nil {
		log.Error(err, "check")
	}

	emitExporterMetrics(ch, instance, err == nil, duration)
	if err != nil {
		return
	}

	for _, g := range gauges {
		ch <- toPrometheus(g)
	}

	emitQueueDepth(ch, instance, gauges)
}
