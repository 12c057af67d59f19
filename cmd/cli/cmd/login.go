package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"talentbridge/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and print a bearer token",
	Long: `Authenticate against the API and print a bearer token.

The password is read from the TALENTBRIDGE_PASSWORD environment variable or,
when that is unset, prompted on stdin. Export the printed token as
TALENTBRIDGE_TOKEN for subsequent commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			cmd.Println("--email is required")
			return
		}

		password := os.Getenv("TALENTBRIDGE_PASSWORD")
		if password == "" {
			cmd.Print("Password: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil {
				cmd.Printf("Failed to read password: %v\n", err)
				return
			}
			password = strings.TrimRight(line, "\r\n")
		}

		client := NewBridgeClient(viper.GetString("url"), "")
		resp, err := client.Login(api.LoginRequest{Email: email, Password: password})
		if err != nil {
			cmd.Printf("Login failed: %s\n", err)
			return
		}

		cmd.Printf("Logged in as %s (%s)\n", email, resp.UserType)
		fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("email", "e", "", "Account email address")
}
