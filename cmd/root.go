/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/jjudge-oj/imageforms/config"
	"github.com/spf13/cobra"
)

var apiURL string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imageforms",
	Short: "Image upload forms: records API server and terminal client",
	Long: `imageforms serves the single image, multiple images and multiple
images plus content record collections, and ships a terminal client
that lists, creates, edits and deletes their records.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetHandler(cli.New(os.Stderr))
		level, err := log.ParseLevel(config.LoadConfig().LogLevel)
		if err != nil {
			level = log.InfoLevel
		}
		log.SetLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "base URL of the records API (defaults to API_URL)")
}

// clientConfig loads the client settings, applying --api-url when given.
func clientConfig() config.ClientConfig {
	cfg := config.LoadConfig().Client
	if apiURL != "" {
		cfg = cfg.WithAPIURL(apiURL)
	}
	return cfg
}
