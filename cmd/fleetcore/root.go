package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jwmdev/schoolbus-fleet-core/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "fleetcore",
	Short: "School-bus fleet scheduling core",
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(warmCacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureLogging() *logrus.Entry {
	if _, err := logrus.ParseLevel(logLevel); err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	return logrus.NewEntry(logging.New(logLevel))
}
