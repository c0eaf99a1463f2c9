package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"travel-planner/internal/client"
)

var (
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange credentials for an access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := client.New(flagBaseURL, "")
		token, err := c.Login(cmd.Context(), flagEmail, flagPassword)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and print its access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := client.New(flagBaseURL, "")
		token, err := c.Register(cmd.Context(), flagEmail, flagPassword)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVar(&flagEmail, "email", "", "account email")
		cmd.Flags().StringVar(&flagPassword, "password", "", "account password")
		_ = cmd.MarkFlagRequired("email")
		_ = cmd.MarkFlagRequired("password")
	}
}
