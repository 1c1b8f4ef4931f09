package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "portfolio-server",
		Short: "Portfolio blog content service",
		Long: `Serves the portfolio blog: paged post listings, post creation with an optional
cover image, and rendered post pages with link-preview metadata.

Configuration comes from an optional YAML file, overridden by environment variables
(MONGO_URL, MONGO_DATABASE, CLOUDINARY_CLOUD_NAME, CLOUDINARY_UPLOAD_PRESET, ...).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
