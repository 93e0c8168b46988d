package servicebus

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the service management endpoint of the public
	// cloud.
	//
	DefaultBaseURL = "https://management.core.windows.net"

	// DefaultTimeout bounds each individual call made to the management
	// API.
	//
	DefaultTimeout = 30 * time.Second

	// RollupFiveMinutes is the granularity token for 5-minute rollups.
	//
	RollupFiveMinutes = "PT5M"

	apiVersion = "2013-08-01"
)

// ManagementClient is the set of management API calls a collection pass
// depends on.
//
type ManagementClient interface {
	ListQueues(ctx context.Context, namespace string) ([]Queue, error)
	SupportedMetrics(ctx context.Context, namespace, queue string) ([]MetricProperties, error)
	MetricData(ctx context.Context, namespace, queue, metric, rollup, filter string) ([]MetricValue, error)
}

// Client talks to the Service Bus management API authenticating with a
// management certificate.
//
type Client struct {
	subscriptionID string
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
}

var _ ManagementClient = (*Client)(nil)

// Option is a functional argument that overrides a default of the Client.
//
type Option func(c *Client)

// WithBaseURL overrides DefaultBaseURL.
//
func WithBaseURL(v string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(v, "/")
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values disable the
// per-call deadline.
//
func WithTimeout(v time.Duration) Option {
	return func(c *Client) {
		c.timeout = v
	}
}

// WithHTTPClient makes the Client use `v` as is, skipping the loading of the
// certificate file.
//
func WithHTTPClient(v *http.Client) Option {
	return func(c *Client) {
		c.httpClient = v
	}
}

// NewClient instantiates a Client for the given subscription. `certFile` must
// be a PEM file holding both the management certificate and its private key.
//
func NewClient(subscriptionID, certFile string, opts ...Option) (*Client, error) {
	c := &Client{
		subscriptionID: subscriptionID,
		baseURL:        DefaultBaseURL,
		timeout:        DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		cert, err := tls.LoadX509KeyPair(certFile, certFile)
		if err != nil {
			return nil, fmt.Errorf("load key pair '%s': %w", certFile, err)
		}

		c.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				},
			},
		}
	}

	return c, nil
}

// ListQueues retrieves the description of every queue in `namespace`.
//
func (c *Client) ListQueues(ctx context.Context, namespace string) ([]Queue, error) {
	const op = "list queues"

	f, err := c.getFeed(ctx, op, c.queuesPath(namespace), "")
	if err != nil {
		return nil, err
	}

	queues, err := f.queues()
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	return queues, nil
}

// SupportedMetrics retrieves the definitions of the metrics available for
// `queue`.
//
func (c *Client) SupportedMetrics(
	ctx context.Context, namespace, queue string,
) ([]MetricProperties, error) {
	const op = "get supported metrics"

	f, err := c.getFeed(ctx, op, c.metricsPath(namespace, queue), "")
	if err != nil {
		return nil, err
	}

	metrics, err := f.metrics()
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	return metrics, nil
}

// MetricData retrieves the `rollup` data points of `metric` matching the
// OData `filter` expression, in the order the API returns them.
//
func (c *Client) MetricData(
	ctx context.Context, namespace, queue, metric, rollup, filter string,
) ([]MetricValue, error) {
	const op = "get metric data"

	path := c.metricsPath(namespace, queue) +
		"/" + url.PathEscape(metric) +
		"/Rollups/" + url.PathEscape(rollup) +
		"/Values"

	f, err := c.getFeed(ctx, op, path, filter)
	if err != nil {
		return nil, err
	}

	values, err := f.values()
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	return values, nil
}

func (c *Client) queuesPath(namespace string) string {
	return "/" + url.PathEscape(c.subscriptionID) +
		"/services/servicebus/Namespaces/" + url.PathEscape(namespace) +
		"/Queues"
}

func (c *Client) metricsPath(namespace, queue string) string {
	return c.queuesPath(namespace) + "/" + url.PathEscape(queue) + "/Metrics"
}

func (c *Client) getFeed(ctx context.Context, op, path, filter string) (*feed, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.baseURL + path
	if filter != "" {
		u += "?$filter=" + strings.ReplaceAll(url.QueryEscape(filter), "+", "%20")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &APIError{Op: op, Err: fmt.Errorf("new request: %w", err)}
	}

	req.Header.Set("x-ms-version", apiVersion)
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, Err: fmt.Errorf("do: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}

	f, err := decodeFeed(resp.Body)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	return f, nil
}
