package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/collector"
	"github.com/brandondahler/datadog-AzureServiceBusCheck/pkg/config"
)

type checkCommand struct {
	root *command
}

func (c *checkCommand) Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "run a single collection pass against every instance " +
			"and print the gauges observed",
		RunE: c.RunE,
	}
}

func (c *checkCommand) RunE(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(c.root.logLevel)
	if err != nil {
		return fmt.Errorf("new logger: %w", err)
	}

	cfg, err := config.LoadConfig(c.root.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var errs []error

	for _, instance := range cfg.Instances {
		fmt.Fprintf(cmd.OutOrStdout(), "\nRunning the check against: %s - %s\n",
			instance.SubscriptionID, instance.Namespace)

		gauges, err := collector.NewCheck(instance,
			collector.WithCheckLogger(log.WithName("check")),
		).Run(cmd.Context())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w",
				instance.SubscriptionID, instance.Namespace, err))
			fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\n", err)

			continue
		}

		printGauges(cmd.OutOrStdout(), gauges)
	}

	return errors.Join(errs...)
}

func printGauges(w io.Writer, gauges []collector.Gauge) {
	for _, g := range gauges {
		fmt.Fprintf(w, "%s %g [%s]", g.Name, g.Value, strings.Join(g.Tags, ","))

		if !g.Timestamp.IsZero() {
			fmt.Fprintf(w, " @%d", g.Timestamp.Unix())
		}

		fmt.Fprintln(w)
	}
}
