package main

import (
	"github.com/spf13/cobra"
)

const app = "practice"

var (
	jsonLogs  bool
	debugLogs bool

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "practice runs a recorded mock interview against the interview coach backend",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugLogs, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")
}
