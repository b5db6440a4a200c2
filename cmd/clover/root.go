package main

import (
	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type app struct {
	envFile string
	cfg     *config.Config
	logger  ectologger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "clover",
		Short:         "Finds and ranks duplicate organization and individual records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			logger, sync, err := logging.New(cfg.AppName, cfg.LogLevel, cfg.PrettyLogs)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger

			shutdown, err := tracing.Init(cmd.Context(), cfg.AppName, cfg.TracingSampleRatio, cfg.OTLP())
			if err != nil {
				return err
			}
			cobra.OnFinalize(func() {
				_ = shutdown(cmd.Context())
				_ = sync()
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(newRunCmd(a), newServeCmd(a), newMigrateCmd(a))
	return root
}
