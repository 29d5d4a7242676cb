package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"viveo/internal/api"
	"viveo/internal/infra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "viveoctl",
	Short: "viveoctl is a command line tool for the viveo video generation platform",
	Long: `viveoctl talks to the viveo backend: it submits video generation jobs,
follows them to completion, and inspects the credit wallet and its ledger.

Common workflows:

  Submit a job and follow it until it finishes:
    viveoctl submit --prompt "a red fox in the snow" --watch

  Check a job later:
    viveoctl status <job-id>

  List recent jobs:
    viveoctl history

  Inspect the wallet:
    viveoctl wallet balance
    viveoctl wallet ledger

Configuration:
  Set the API endpoint and credentials via flags, environment variables, or
  a config file:
    VIVEO_API_URL    API endpoint (default: http://localhost:8080)
    VIVEO_TOKEN      API token for authentication`,
}

// Execute runs the root command.
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

		viper.AddConfigPath(home)
		viper.SetConfigName(".viveoctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIVEO")
	viper.AutomaticEnv()
	viper.SetDefault("max_job_cost", 500)

	_ = viper.ReadInConfig()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.viveoctl.yaml)")

	rootCmd.PersistentFlags().String("api-url", "http://localhost:8080", "viveo API URL")
	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API token for authentication")
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

// newClient builds the backend client from the resolved configuration.
func newClient() (*api.Client, error) {
	logger := infra.NewLogger(os.Getenv("APP_ENV"))
	return api.NewClient(api.Options{
		BaseURL:        viper.GetString("api_url"),
		Token:          viper.GetString("token"),
		Logger:         &logger,
		RequestTimeout: 30 * time.Second,
	})
}
