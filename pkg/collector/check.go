package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/config"
	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/servicebus"
)

// ClientFactory builds the management API client used for a pass once the
// connection parameters are known.
//
type ClientFactory func(conn *config.Connection) (servicebus.ManagementClient, error)

// DefaultClientFactory authenticates with the connection's certificate file.
//
func DefaultClientFactory(conn *config.Connection) (servicebus.ManagementClient, error) {
	client, err := servicebus.NewClient(
		conn.SubscriptionID, conn.CertFile,
		servicebus.WithBaseURL(conn.ManagementURL),
		servicebus.WithTimeout(conn.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}

	return client, nil
}

// Check performs collection passes over a single instance.
//
type Check struct {
	instance config.Instance

	newClient ClientFactory
	extract   config.CertificateExtractor
	now       func() time.Time

	log logr.Logger
}

// CheckOption is a functional argument that overrides a default of the
// Check.
//
type CheckOption func(c *Check)

// WithClientFactory overrides DefaultClientFactory.
//
func WithClientFactory(v ClientFactory) CheckOption {
	return func(c *Check) {
		c.newClient = v
	}
}

// WithCertificateExtractor overrides config.ExtractCertificate.
//
func WithCertificateExtractor(v config.CertificateExtractor) CheckOption {
	return func(c *Check) {
		c.extract = v
	}
}

// WithClock overrides time.Now as the source of the current time.
//
func WithClock(v func() time.Time) CheckOption {
	return func(c *Check) {
		c.now = v
	}
}

// WithCheckLogger overrides the default no-op logger.
//
func WithCheckLogger(v logr.Logger) CheckOption {
	return func(c *Check) {
		c.log = v
	}
}

// NewCheck instantiates a Check for `instance`.
//
func NewCheck(instance config.Instance, opts ...CheckOption) *Check {
	c := &Check{
		instance:  instance,
		newClient: DefaultClientFactory,
		extract:   config.ExtractCertificate,
		now:       time.Now,
		log:       logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run performs one collection pass, returning every gauge observed in the
// order they were produced: for each queue (as listed by the API), its
// counters followed by one gauge per supported metric.
//
// Any failure aborts the pass. Whatever the outcome, a certificate file
// materialized for the pass is removed before Run returns.
//
func (c *Check) Run(ctx context.Context) (gauges []Gauge, err error) {
	conn, err := c.instance.Resolve(c.extract)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("cleanup: %w", closeErr))
		}
	}()

	client, err := c.newClient(conn)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	log := c.log.WithValues(
		"namespace", conn.Namespace,
		"subscription", conn.SubscriptionID,
	)

	tags := append(conn.Tags,
		"namespace:"+conn.Namespace,
		"subscription:"+conn.SubscriptionID,
	)

	queues, err := client.ListQueues(ctx, conn.Namespace)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}

	window := NewRateWindow(c.now())
	filter := window.Filter()

	for _, queue := range queues {
		queueTags := withTag(tags, "queue:"+queue.Name)

		gauges = append(gauges, QueueGauges(queue, queueTags)...)

		metrics, err := client.SupportedMetrics(ctx, conn.Namespace, queue.Name)
		if err != nil {
			return nil, fmt.Errorf("queue '%s': supported metrics: %w",
				queue.Name, err)
		}

		for _, metric := range metrics {
			values, err := client.MetricData(ctx,
				conn.Namespace, queue.Name, metric.Name,
				servicebus.RollupFiveMinutes, filter,
			)
			if err != nil {
				return nil, fmt.Errorf("queue '%s': metric '%s': %w",
					queue.Name, metric.Name, err)
			}

			gauges = append(gauges,
				MetricGauge(metric, values, queueTags, window.Upper))
		}

		log.V(1).Info("collected queue",
			"queue", queue.Name,
			"metrics", len(metrics),
		)
	}

	return gauges, nil
}
