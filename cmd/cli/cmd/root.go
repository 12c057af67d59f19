package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Bridgectl is a command line tool for operating the talentbridge platform",
	Long: `bridgectl is the command-line interface for the TalentBridge freelance marketplace.

It is aimed at platform operators: inspecting contracts, issuing refunds on
behalf of the admin account, and browsing job postings.

Common workflows:

  Log in and store a token:
    bridgectl login --email admin@example.com

  List all contracts (admin):
    bridgectl contracts list --all

  Inspect a single contract:
    bridgectl contracts get <contract-id>

  Refund a platform fee (admin):
    bridgectl refund <contract-id> --payment-id ch_123 --reason "duplicate charge"

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    TALENTBRIDGE_URL        API endpoint (default: http://localhost:8080)
    TALENTBRIDGE_TOKEN      Bearer token for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".bridgectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".bridgectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "TALENTBRIDGE_VARNAME"
	viper.SetEnvPrefix("TALENTBRIDGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bridgectl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "TalentBridge API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
