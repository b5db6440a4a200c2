package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the run snapshot schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.cfg.DatabaseHost == "" {
				return errors.New("migrate requires DB_HOST")
			}

			db, err := database.Connect(ctx, a.cfg.Database(), a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrations := database.NewMigrationService(a.logger, a.cfg.Migration())
			if err := migrations.MigratePostgres(db.DB.DB, a.cfg.DatabaseName); err != nil {
				return err
			}

			latest, err := database.LatestVersion(a.cfg.DatabaseMigrationFolderPath)
			if err != nil {
				return err
			}
			a.logger.WithContext(ctx).WithField("version", latest).Info("Database schema is up to date")
			return nil
		},
	}
}
