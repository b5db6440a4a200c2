package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/internal/runner"
	clcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/tableio"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		out      string
		products []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve the configured extracts once and write the report tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := clcontext.With(cmd.Context(), clcontext.Values{RequestID: uuid.NewString(), Trigger: clcontext.TriggerCLI})

			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = s.close(ctx) }()

			p, err := a.newPipeline(s)
			if err != nil {
				return err
			}

			r := runner.New(p, runner.FromPaths(a.cfg.Tables()), a.cfg.RunOptions(), a.logger)
			result, err := r.Trigger(ctx, runner.Request{Products: products})
			if err != nil {
				return err
			}

			if out == "" {
				out = a.cfg.OutputDir
			}
			written, err := tableio.WriteResult(out, result)
			if err != nil {
				return err
			}

			summary := result.Summary()
			a.logger.WithContext(ctx).WithFields(map[string]any{
				"run_id":                  summary.RunID,
				"records":                 summary.Records,
				"organization_duplicates": summary.OrganizationDuplicates,
				"individual_duplicates":   summary.IndividualDuplicates,
				"notices":                 summary.Notices,
				"files":                   len(written),
				"output_dir":              out,
			}).Info("Wrote report tables")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (defaults to OUTPUT_DIR)")
	cmd.Flags().StringSliceVarP(&products, "product", "p", nil, "product names to partition (defaults to PRODUCTS)")
	return cmd
}
