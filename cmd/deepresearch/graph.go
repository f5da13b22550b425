package main

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/spf13/cobra"

	"github.com/smallnest/deepresearch/extract"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/research"
	"github.com/smallnest/deepresearch/search"
)

var errNotWired = errors.New("not wired: graph export only")

func newGraphCmd(_ *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the workflow as a Mermaid flowchart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The topology does not depend on the clients, so no credentials are needed.
			engine, err := research.NewEngine(
				llm.ClientFunc(func(context.Context, []llm.Message) (string, error) {
					return "", errNotWired
				}),
				search.ClientFunc(func(context.Context, string, int) iter.Seq2[search.Result, error] {
					return search.Fail(errNotWired)
				}),
				extract.ExtractorFunc(func(context.Context, string) (string, error) {
					return "", errNotWired
				}),
			)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), engine.Mermaid())
			return err
		},
	}
}
