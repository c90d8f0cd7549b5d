package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "scoutctl",
	Short:   "Command line client for the scout research API",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", "", "base URL of the scout API (default http://127.0.0.1:8000, or $SCOUT_API)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
