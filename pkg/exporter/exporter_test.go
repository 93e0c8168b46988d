package exporter

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_Run(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "servicebus_test_gauge",
		Help: "a gauge for testing",
	}, func() float64 { return 42 }))

	e, err := New(
		WithBindAddress("127.0.0.1:0"),
		WithTelemetryPath("/telemetry"),
		WithGatherer(reg),
		WithLogger(logr.Discard()),
	)
	require.NoError(t, err)
	defer e.Close()

	assert.Nil(t, e.Addr())
	require.NoError(t, e.Listen())
	require.NotNil(t, e.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errC := make(chan error, 1)
	go func() {
		errC <- e.Run(ctx)
	}()

	url := "http://" + e.Addr().String()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/telemetry")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		return err == nil && resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	assert.Contains(t, string(body), "servicebus_test_gauge 42")

	resp, err := http.Get(url + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()

	select {
	case err := <-errC:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("exporter did not stop")
	}

	assert.NoError(t, e.Close())
}

func TestExporter_ListenFailure(t *testing.T) {
	e, err := New(WithBindAddress("127.0.0.1:-1"), WithLogger(logr.Discard()))
	require.NoError(t, err)

	assert.Error(t, e.Run(context.Background()))
}
