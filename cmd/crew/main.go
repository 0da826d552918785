package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	verbose    bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "crew",
		Short: "AI Research Crew - multi agent web research, summarization & email reporting",
		Long: `Runs the research crew from the command line: a researcher searches the web,
a summarizer writes the report in the chosen format and an emailer delivers it.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				log.SetOutput(io.Discard)
			}
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using environment variables")
			}
			return initViper()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file with run defaults (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newRunCmd(), newSearchCmd(), newEmailTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initViper lets CREW_* environment variables and an optional config file
// supply flag defaults
func initViper() error {
	viper.SetEnvPrefix("crew")
	viper.AutomaticEnv()

	if configFile == "" {
		return nil
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}
	return nil
}
