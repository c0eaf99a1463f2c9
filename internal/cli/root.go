// Package cli implements the planctl command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagBaseURL string
	flagToken   string
)

var rootCmd = &cobra.Command{
	Use:     "planctl",
	Short:   "CLI client for the travel-planner API",
	Long:    `planctl submits trip briefs, polls generation status, and inspects saved plans against a running travel-planner API.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "api", "http://localhost:8080", "base URL of the travel-planner API")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "access token (from planctl login)")
	rootCmd.AddCommand(loginCmd, registerCmd, generateCmd, statusCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
