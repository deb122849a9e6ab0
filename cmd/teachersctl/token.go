package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/teachers-admin/internal/models"
)

var (
	tokenUser  string
	tokenRole  string
	tokenEmail string
	tokenName  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator access token for the gateway",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, expires, err := app.auth.IssueToken(tokenUser, models.UserRole(tokenRole), tokenEmail, tokenName)
		if err != nil {
			return err
		}
		cmd.Println(token)
		cmd.PrintErrf("expires %s\n", expires.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "operator", "subject user id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleAdmin), "ADMIN or SUPERADMIN")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "operator email")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "operator full name")
	rootCmd.AddCommand(tokenCmd)
}
