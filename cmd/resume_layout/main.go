// Package main provides the resume_layout command: paginated résumé layout,
// PDF export and the résumé builder HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/resume-layout/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "resume_layout",
		Short:         "Paginated résumé layout and PDF export",
		Long:          "resume_layout splits structured résumé data into fixed-height A4 pages, exports them as PDF and serves the résumé builder REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a JSON config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print detailed progress")

	root.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newPaginateCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// load reads the optional config file and fills what it leaves empty from
// the environment and the built-in defaults. Mode stays empty unless the
// file sets it, so a résumé's own layout mode applies.
func (o *rootOptions) load() (config.Config, error) {
	file := &config.Config{}
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		file = loaded
	}
	if err := file.Validate(); err != nil {
		return config.Config{}, err
	}

	defaults := config.Defaults()
	defaults.Mode = ""
	defaults.DatabaseURL = os.Getenv("DATABASE_URL")
	defaults.APIKey = os.Getenv("GEMINI_API_KEY")
	defaults.ChromePath = os.Getenv("CHROME_PATH")
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		defaults.UploadDir = dir
	}

	cfg := file.MergeWithDefaults(defaults)
	cfg.Verbose = cfg.Verbose || o.verbose
	if cfg.ChromePath != "" {
		// browser.AllocatorOptions reads the binary from the environment
		if err := os.Setenv("CHROME_PATH", cfg.ChromePath); err != nil {
			return config.Config{}, fmt.Errorf("failed to set CHROME_PATH: %w", err)
		}
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
