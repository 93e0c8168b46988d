package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/servicebus"
)

const publishSettingsDoc = `<?xml version="1.0" encoding="utf-8"?>
<PublishData>
  <PublishProfile SchemaVersion="2.0" PublishMethod="AzureServiceManagementAPI">
    <Subscription ServiceManagementUrl="https://management.core.usgovcloudapi.net" Id="sub1" Name="Primary" ManagementCertificate="MIIK" />
  </PublishProfile>
</PublishData>`

func fakeExtractor(calls *int) CertificateExtractor {
	return func(content []byte, subscriptionID string) ([]byte, string, error) {
		*calls++

		if string(content) != publishSettingsDoc {
			return nil, "", errors.New("unexpected publish settings")
		}

		return []byte("-----BEGIN CERTIFICATE-----\n" + subscriptionID + "\n"),
			"https://management.core.usgovcloudapi.net", nil
	}
}

func TestInstance_Resolve_Validation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		instance Instance
		key      string
	}{
		{
			name:     "no credentials",
			instance: Instance{SubscriptionID: "sub1", Namespace: "ns1"},
			key:      "cert_file",
		},
		{
			name:     "no namespace",
			instance: Instance{SubscriptionID: "sub1", CertFile: "/tmp/c.pem"},
			key:      "namespace",
		},
		{
			name:     "no subscription",
			instance: Instance{Namespace: "ns1", CertFile: "/tmp/c.pem"},
			key:      "subscription_id",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conn, err := tc.instance.Resolve(nil)
			require.Error(t, err)
			assert.Nil(t, conn)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.key, cfgErr.Key)
		})
	}
}

func TestInstance_Resolve_CertFile(t *testing.T) {
	conn, err := Instance{
		SubscriptionID: "sub1",
		Namespace:      "ns1",
		CertFile:       "/tmp/c.pem",
	}.Resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/c.pem", conn.CertFile)
	assert.False(t, conn.OwnsCertFile())
	assert.NotNil(t, conn.Tags)
	assert.Empty(t, conn.Tags)
	assert.Equal(t, servicebus.DefaultBaseURL, conn.ManagementURL)
	assert.Equal(t, servicebus.DefaultTimeout, conn.Timeout)

	require.NoError(t, conn.Close())
}

func TestInstance_Resolve_PublishSettings(t *testing.T) {
	calls := 0
	inst := Instance{
		SubscriptionID:  "sub1",
		Namespace:       "ns1",
		PublishSettings: publishSettingsDoc,
		CertFile:        "/ignored.pem",
		Tags:            []string{"env:prod"},
		Timeout:         5 * time.Second,
	}

	conn, err := inst.Resolve(fakeExtractor(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	assert.True(t, conn.OwnsCertFile())
	assert.NotEqual(t, "/ignored.pem", conn.CertFile)
	assert.Equal(t, "https://management.core.usgovcloudapi.net", conn.ManagementURL)
	assert.Equal(t, 5*time.Second, conn.Timeout)
	assert.Equal(t, []string{"env:prod"}, conn.Tags)

	content, err := os.ReadFile(conn.CertFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "sub1")

	require.NoError(t, conn.Close())
	assert.NoFileExists(t, conn.CertFile)

	// closing twice is a no-op.
	require.NoError(t, conn.Close())
}

func TestInstance_Resolve_PublishSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.publishsettings")
	require.NoError(t, os.WriteFile(path, []byte(publishSettingsDoc), 0o600))

	calls := 0
	conn, err := Instance{
		SubscriptionID:  "sub1",
		Namespace:       "ns1",
		PublishSettings: path,
		ManagementURL:   "https://example.test",
	}.Resolve(fakeExtractor(&calls))
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "https://example.test", conn.ManagementURL)
	assert.FileExists(t, conn.CertFile)
}

func TestInstance_Resolve_UniqueCertFiles(t *testing.T) {
	calls := 0
	inst := Instance{
		SubscriptionID:  "sub1",
		Namespace:       "ns1",
		PublishSettings: publishSettingsDoc,
	}

	a, err := inst.Resolve(fakeExtractor(&calls))
	require.NoError(t, err)
	defer a.Close()

	b, err := inst.Resolve(fakeExtractor(&calls))
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.CertFile, b.CertFile)
}

func TestInstance_Resolve_ExtractionFailure(t *testing.T) {
	conn, err := Instance{
		SubscriptionID:  "sub1",
		Namespace:       "ns1",
		PublishSettings: "<PublishData/>",
	}.Resolve(nil)
	assert.Nil(t, conn)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "publish_settings", cfgErr.Key)
}
