package main

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/collector"
	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/config"
	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/exporter"
)

type command struct {
	configPath    string
	logLevel      string
	telemetryPath string
	bindAddr      string
}

func (c *command) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "servicebus-exporter",
		Short:        "Prometheus exporter for Service Bus queue metrics",
		RunE:         c.RunE,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config",
		"", "filepath of the configuration file listing the "+
			"instances to collect from")
	_ = cmd.MarkPersistentFlagFilename("config", "yaml", "yml", "json", "toml")

	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level",
		"info", "minimum level of the logs emitted (debug, info, "+
			"warn, error)")

	cmd.Flags().StringVar(&c.bindAddr, "bind-addr",
		":9000", "address to bind the prometheus server to")

	cmd.Flags().StringVar(&c.telemetryPath, "telemetry-path",
		"/metrics", "endpoint at which prometheus metrics are served")

	return cmd
}

func (c *command) RunE(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(c.logLevel)
	if err != nil {
		return fmt.Errorf("new logger: %w", err)
	}

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	err = collector.Register(cfg.Instances,
		collector.WithLogger(log.WithName("collector")),
	)
	if err != nil {
		return fmt.Errorf("collector register: %w", err)
	}

	prometheusExporter, err := exporter.New(
		exporter.WithBindAddress(c.bindAddr),
		exporter.WithTelemetryPath(c.telemetryPath),
		exporter.WithLogger(log.WithName("exporter")),
	)
	if err != nil {
		return fmt.Errorf("new exporter: %w", err)
	}
	defer prometheusExporter.Close()

	err = prometheusExporter.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("prometheus exporter run: %w", err)
	}

	return nil
}

func newLogger(level string) (logr.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return logr.Discard(), fmt.Errorf("parse level '%s': %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zapLogger, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("zap build: %w", err)
	}

	return zapr.NewLogger(zapLogger), nil
}
