package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/servicebus"
)

// Config is the content of the exporter's configuration file.
//
type Config struct {
	// Timeout bounds each call to the management API for instances that
	// don't set their own.
	//
	Timeout time.Duration

	// ManagementURL is the management endpoint used by instances that
	// neither set one nor get one from their publish settings.
	//
	ManagementURL string

	Instances []Instance
}

// LoadConfig reads the configuration file at `path`, or searches for a
// `servicebus.{yaml,json,toml}` in the usual places when `path` is empty.
//
// Top-level keys can be overridden through environment variables prefixed
// with SERVICEBUS_EXPORTER_ (e.g., SERVICEBUS_EXPORTER_TIMEOUT=10s).
//
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("timeout", servicebus.DefaultTimeout)
	v.SetDefault("management_url", servicebus.DefaultBaseURL)

	v.SetEnvPrefix("servicebus_exporter")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("servicebus")
		v.AddConfigPath("/etc/servicebus-exporter")
		v.AddConfigPath("$HOME/.servicebus-exporter")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read in config: %w", err)
	}

	cfg := &Config{
		Timeout:       v.GetDuration("timeout"),
		ManagementURL: v.GetString("management_url"),
	}

	if err := v.UnmarshalKey("instances", &cfg.Instances); err != nil {
		return nil, fmt.Errorf("unmarshal instances: %w", err)
	}

	if len(cfg.Instances) == 0 {
		return nil, &ConfigurationError{
			Key:    "instances",
			Reason: "at least one instance must be configured",
		}
	}

	for idx := range cfg.Instances {
		inst := &cfg.Instances[idx]

		if inst.Timeout == 0 {
			inst.Timeout = cfg.Timeout
		}

		inst.fallbackURL = cfg.ManagementURL
	}

	return cfg, nil
}
