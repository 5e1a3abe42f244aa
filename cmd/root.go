package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolios",
	Short: "Token portfolios microservice",
	Long:  "A microservice for paid token portfolio pages: payment initiation, webhook reconciliation, and publication.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
