package collector

import (
	"context"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/config"
	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/servicebus"
)

type metricDataCall struct {
	namespace string
	queue     string
	metric    string
	rollup    string
	filter    string
}

type fakeClient struct {
	queues  []servicebus.Queue
	metrics map[string][]servicebus.MetricProperties
	values  map[string][]servicebus.MetricValue

	listErr    error
	metricsErr error
	dataErr    error

	dataCalls []metricDataCall
}

var _ servicebus.ManagementClient = (*fakeClient)(nil)

func (f *fakeClient) ListQueues(_ context.Context, _ string) ([]servicebus.Queue, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	return f.queues, nil
}

func (f *fakeClient) SupportedMetrics(
	_ context.Context, _, queue string,
) ([]servicebus.MetricProperties, error) {
	if f.metricsErr != nil {
		return nil, f.metricsErr
	}

	return f.metrics[queue], nil
}

func (f *fakeClient) MetricData(
	_ context.Context, namespace, queue, metric, rollup, filter string,
) ([]servicebus.MetricValue, error) {
	f.dataCalls = append(f.dataCalls, metricDataCall{
		namespace: namespace,
		queue:     queue,
		metric:    metric,
		rollup:    rollup,
		filter:    filter,
	})

	if f.dataErr != nil {
		return nil, f.dataErr
	}

	return f.values[queue+"/"+metric], nil
}

func factoryFor(client servicebus.ManagementClient) ClientFactory {
	return func(_ *config.Connection) (servicebus.ManagementClient, error) {
		return client, nil
	}
}
