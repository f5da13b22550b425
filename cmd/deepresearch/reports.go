package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smallnest/deepresearch/report"
	"github.com/smallnest/deepresearch/store"
)

func newReportsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect archived reports",
	}
	cmd.AddCommand(newReportsListCmd(g), newReportsShowCmd(g), newReportsDeleteCmd(g))
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, g *globalOptions, fn func(store.ReportStore) error) error {
	cfg, _, err := g.load()
	if err != nil {
		return err
	}
	reports, err := newStore(cmd.Context(), cfg.Store)
	if err != nil {
		return err
	}
	defer reports.Close()
	return fn(reports)
}

func newReportsListCmd(g *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(reports store.ReportStore) error {
				list, err := reports.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tTITLE")
				for _, r := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), report.Title(r.Markdown, r.Topic))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports (0 for all)")
	return cmd
}

func newReportsShowCmd(g *globalOptions) *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(reports store.ReportStore) error {
				r, err := reports.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !asHTML {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Markdown)
					return err
				}
				doc, err := report.Document(r.Topic, r.Markdown)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print as a standalone HTML document")
	return cmd
}

func newReportsDeleteCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(reports store.ReportStore) error {
				if err := reports.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
