package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/deepresearch/progress"
	"github.com/smallnest/deepresearch/report"
	"github.com/smallnest/deepresearch/research"
	"github.com/smallnest/deepresearch/store"
)

// DefaultReportFile is where run writes the Markdown report.
const DefaultReportFile = "final_report.md"

func newRunCmd(g *globalOptions) *cobra.Command {
	var (
		outPath  string
		htmlPath string
		archive  bool
	)
	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Research a topic and write a Markdown report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topic := strings.TrimSpace(strings.Join(args, " "))

			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			narrator := progress.NewNarrator(cmd.OutOrStdout())
			if err := cfg.Validate(); err != nil {
				narrator.Fail(err)
				return errReported
			}

			engine, err := newEngine(ctx, cfg, logger)
			if err != nil {
				return err
			}

			narrator.Start(topic)
			var plan []string
			var markdown string
			for ev, err := range engine.Stream(ctx, topic) {
				if err != nil {
					narrator.Fail(err)
					return errReported
				}
				narrator.Handle(ev)
				switch d := ev.Delta.(type) {
				case research.PlanDelta:
					plan = d.Plan
				case research.ReportDelta:
					markdown = d.FinalReport
				}
			}

			if err := os.WriteFile(outPath, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)

			if htmlPath != "" {
				doc, err := report.Document(topic, markdown)
				if err != nil {
					return fmt.Errorf("render html: %w", err)
				}
				if err := os.WriteFile(htmlPath, doc, 0o644); err != nil {
					return fmt.Errorf("write html: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "HTML written to %s\n", htmlPath)
			}

			if archive {
				reports, err := newStore(ctx, cfg.Store)
				if err != nil {
					return err
				}
				defer reports.Close()
				r := store.NewReport(topic, plan, markdown)
				if err := reports.Save(ctx, r); err != nil {
					return fmt.Errorf("archive report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived as %s\n", r.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", DefaultReportFile, "Markdown output file")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write a styled HTML document to this file")
	cmd.Flags().BoolVar(&archive, "archive", false, "save the report to the configured store")
	return cmd
}
