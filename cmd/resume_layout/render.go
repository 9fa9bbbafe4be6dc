package main

import (
	"fmt"

	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/observability"
	"github.com/spf13/cobra"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		in       string
		out      string
		mode     string
		exporter string
		verify   bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a résumé JSON file to a paginated PDF",
		Long: `Validates the résumé JSON, splits it into A4 pages and writes one PDF page
per layout page. The output file is replaced atomically.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				cfg.Mode = mode
			}
			if cmd.Flags().Changed("exporter") {
				cfg.Exporter = exporter
			}
			cfg.Verify = cfg.Verify || verify
			if err := cfg.Validate(); err != nil {
				return err
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

			printer := observability.NewPrinter(cmd.ErrOrStderr())
			if cfg.Verbose {
				printer.PrintLayout(run.state)
			}

			pdf, err := run.session.Export(cmd.Context(), be.exporter)
			if err != nil {
				return err
			}

			pages := len(run.state.Pages)
			if cfg.Verify {
				if got := export.CountPages(pdf); got != pages {
					return &export.ExportError{
						Stage: export.StageVerify,
						Cause: fmt.Errorf("pdf has %d pages, layout has %d", got, pages),
					}
				}
			}
			if err := export.WriteFileAtomic(out, pdf); err != nil {
				return err
			}

			if cfg.Verbose {
				printer.PrintExport(out, len(pdf), pages)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d pages, %s layout)\n", out, pages, run.state.PagesMode)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to the résumé JSON file (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Path to the output PDF (required)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Layout mode: standard or compact (default: the résumé's own)")
	cmd.Flags().StringVar(&exporter, "exporter", "", "PDF exporter: canvas or chrome (default canvas)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check that the PDF page count matches the layout")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
