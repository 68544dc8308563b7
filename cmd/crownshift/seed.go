package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crownshift/logistics-api/internal/core/ports"
	"github.com/crownshift/logistics-api/internal/core/service"
	"github.com/crownshift/logistics-api/internal/infrastructure/db/mongo"
	"github.com/crownshift/logistics-api/pkg/logger"
)

func newSeedCmd() *cobra.Command {
	var (
		companyID string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default services and FAQs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := bootstrap(ctx)
			if err != nil {
				return err
			}

			client, db, err := mongo.Connect(ctx, mongo.Config{
				URI:      cfg.Mongo.URI,
				Database: cfg.Mongo.Database,
				AppName:  serviceName,
				Timeout:  cfg.Mongo.Timeout,
			})
			if err != nil {
				return err
			}
			defer disconnect(client, log)

			if err := mongo.EnsureIndexes(ctx, db); err != nil {
				return err
			}

			svc := service.NewCatalogService(mongo.NewCatalogRepository(db), mongo.NewAdminOpsRepository(db), logger.Component("seed"))
			res, err := svc.Seed(ctx, ports.SeedInput{CompanyID: companyID, RanBy: "cli", Force: force})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded company %q: %d services, %d faqs inserted\n",
				res.CompanyID, res.ServicesInserted, res.FAQsInserted)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company the run is recorded against")
	cmd.Flags().BoolVar(&force, "force", false, "run even if the seeder already ran")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
