package main

import (
	"fmt"

	"github.com/jonathan/resume-layout/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start an HTTP server exposing accounts, résumé storage, AI assistance,
paginated layout and PDF export.

Requires DATABASE_URL and JWT_SECRET. GEMINI_API_KEY enables the AI endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL environment variable is required")
			}

			srv, err := server.New(server.Config{
				Port:        cfg.Port,
				DatabaseURL: cfg.DatabaseURL,
				APIKey:      cfg.APIKey,
				UploadDir:   cfg.UploadDir,
				Exporter:    cfg.Exporter,
				Verbose:     cfg.Verbose,
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Start()
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	return cmd
}
