package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/api/client"
)

func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the opscheck server",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := client.Login(username, password)
			if err != nil {
				return err
			}
			fmt.Println("Login successful. Export the token for subsequent commands:")
			fmt.Printf("  export OPSCHECK_TOKEN=%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}
