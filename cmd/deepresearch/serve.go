package main

import (
	"github.com/spf13/cobra"

	"github.com/smallnest/deepresearch/research"
	"github.com/smallnest/deepresearch/server"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Address
			}

			metrics := server.NewMetrics()
			engine, err := newEngine(ctx, cfg, logger, research.WithListener(metrics))
			if err != nil {
				return err
			}
			reports, err := newStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer reports.Close()

			srv := server.New(engine, reports,
				server.WithLogger(logger),
				server.WithMetrics(metrics),
			)
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
