// Package cmd provides the cobra-based CLI entrypoint, in the teacher's
// cmd/root.go style: a persistent --config flag and a RunE that loads the
// config and drives an app.Service until interrupted.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetctl/app"
	"github.com/kilianp07/fleetctl/config"
	"github.com/kilianp07/fleetctl/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "fleetctl",
	Short: "Multi-robot fleet dispatch coordinator",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
