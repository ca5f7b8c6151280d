// Package cmd implements the adhesion CLI: a batch file-processing mode
// and a live-serving mode, wired the way the teacher's cmd/orderflow
// wired its own ingest/broadcast pipeline — cobra for the command tree,
// logrus for structured logging, flags bound in init().
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "adhesion",
	Short: "Adhesion metrics analysis core for DLP resin print instrumentation",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	},
}

// Execute runs the root command, exiting 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
}
