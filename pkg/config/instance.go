package config

import (
	"fmt"
	"os"
	"time"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/servicebus"
)

// Instance is the configuration of a single namespace to collect from.
//
type Instance struct {
	SubscriptionID  string        `mapstructure:"subscription_id"`
	Namespace       string        `mapstructure:"namespace"`
	CertFile        string        `mapstructure:"cert_file"`
	PublishSettings string        `mapstructure:"publish_settings"`
	Tags            []string      `mapstructure:"tags"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ManagementURL   string        `mapstructure:"management_url"`

	// fallbackURL is the globally configured management url, used when
	// neither the instance nor its publish settings name one.
	//
	fallbackURL string
}

// Connection holds everything a collection pass needs to reach a namespace.
//
// When the certificate has been materialized from publish settings, the
// Connection owns that file: Close must be called once the pass is over.
//
type Connection struct {
	SubscriptionID string
	Namespace      string
	CertFile       string
	Tags           []string
	Timeout        time.Duration
	ManagementURL  string

	ownsCertFile bool
}

// Resolve validates the instance and produces its Connection, extracting the
// certificate from publish settings with `extract` (ExtractCertificate if
// nil) when those are configured.
//
// Failures are always reported as *ConfigurationError, and no file is left
// behind when one is returned.
//
func (i Instance) Resolve(extract CertificateExtractor) (*Connection, error) {
	if i.SubscriptionID == "" {
		return nil, missing("subscription_id")
	}

	if i.Namespace == "" {
		return nil, missing("namespace")
	}

	if i.PublishSettings == "" && i.CertFile == "" {
		return nil, &ConfigurationError{
			Key:    "cert_file",
			Reason: "either 'cert_file' or 'publish_settings' must be set",
		}
	}

	conn := &Connection{
		SubscriptionID: i.SubscriptionID,
		Namespace:      i.Namespace,
		CertFile:       i.CertFile,
		Tags:           append([]string{}, i.Tags...),
		Timeout:        i.Timeout,
		ManagementURL:  i.ManagementURL,
	}

	if i.PublishSettings != "" {
		if extract == nil {
			extract = ExtractCertificate
		}

		managementURL, err := conn.materializeCertificate(i.PublishSettings, extract)
		if err != nil {
			return nil, &ConfigurationError{
				Key:    "publish_settings",
				Reason: "invalid",
				Err:    err,
			}
		}

		if conn.ManagementURL == "" {
			conn.ManagementURL = managementURL
		}
	}

	if conn.ManagementURL == "" {
		conn.ManagementURL = i.fallbackURL
	}

	if conn.ManagementURL == "" {
		conn.ManagementURL = servicebus.DefaultBaseURL
	}

	if conn.Timeout == 0 {
		conn.Timeout = servicebus.DefaultTimeout
	}

	return conn, nil
}

func (c *Connection) materializeCertificate(
	publishSettings string, extract CertificateExtractor,
) (string, error) {
	content, err := readPublishSettings(publishSettings)
	if err != nil {
		return "", fmt.Errorf("read publish settings: %w", err)
	}

	pemData, managementURL, err := extract(content, c.SubscriptionID)
	if err != nil {
		return "", fmt.Errorf("extract certificate: %w", err)
	}

	f, err := os.CreateTemp("", "servicebus-*.pem")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}

	_, err = f.Write(pemData)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write '%s': %w", f.Name(), err)
	}

	c.CertFile = f.Name()
	c.ownsCertFile = true

	return managementURL, nil
}

// OwnsCertFile tells whether CertFile was created for this Connection and
// is therefore removed by Close.
//
func (c *Connection) OwnsCertFile() bool {
	return c.ownsCertFile
}

// Close removes the materialized certificate file, if any. It is safe to
// call more than once.
//
func (c *Connection) Close() error {
	if !c.ownsCertFile {
		return nil
	}

	c.ownsCertFile = false

	if err := os.Remove(c.CertFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove '%s': %w", c.CertFile, err)
	}

	return nil
}
