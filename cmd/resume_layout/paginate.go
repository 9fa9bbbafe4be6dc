package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-layout/internal/observability"
	"github.com/jonathan/resume-layout/internal/server"
	"github.com/spf13/cobra"
)

func newPaginateCmd(root *rootOptions) *cobra.Command {
	var (
		in     string
		mode   string
		width  float64
		format string
	)
	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Print the page partition of a résumé as JSON",
		Long:  "Splits a résumé JSON file into pages and prints each page's blocks and height, plus the preview scale for --width.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				cfg.Mode = mode
			}
			if cmd.Flags().Changed("width") {
				cfg.Width = width
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown format %q (want json or text)", format)
			}

			r, err := readResume(in)
			if err != nil {
				return err
			}
			be, err := newBackend(cfg)
			if err != nil {
				return err
			}
			defer be.close()
			run, err := layout(cmd.Context(), cfg, be, r)
			if err != nil {
				return err
			}

			if format == "text" {
				observability.NewPrinter(cmd.OutOrStdout()).PrintLayout(run.state)
				return nil
			}
			data, err := json.MarshalIndent(server.NewLayoutResponse(run.state), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal layout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to the résumé JSON file (required)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Layout mode: standard or compact (default: the résumé's own)")
	cmd.Flags().Float64Var(&width, "width", 0, "Preview container width in CSS px")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or text")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
