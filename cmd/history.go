package cmd

import (
	"fmt"
	"log"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chrisdamba/partnerconsole/internal/dashboard"
	"github.com/chrisdamba/partnerconsole/internal/export"
	"github.com/chrisdamba/partnerconsole/internal/models"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(cmd.Context(), func(vm *dashboard.ViewModel) error {
			snap := vm.Snapshot()
			if len(snap.Recent) == 0 {
				fmt.Println("No deliveries yet")
				return nil
			}
			for _, o := range snap.Recent {
				fmt.Printf("%s  %s  %s → %s  ₹%.2f\n", o.UpdatedAt.Local().Format("Jan 02 15:04"), o.ID, o.Restaurant.Name, o.Customer.Name, o.TotalAmount)
			}
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full delivery history",
	Long: `Writes every delivery in the partner's history to the configured
destination: json, csv or parquet files (parquet may target S3), a postgres
table, or a Kafka topic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		p, err := a.partner(ctx)
		if err != nil {
			return err
		}
		history, err := a.client.History(ctx)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		records := make([]models.HistoryRecord, 0, len(history))
		for _, o := range history {
			records = append(records, models.NewHistoryRecord(o, p.ID, cfg.EarningsPerDelivery))
		}

		dest, err := export.New(ctx, cfg.Export)
		if err != nil {
			return err
		}
		bar := progressbar.Default(int64(len(records)), "exporting "+cfg.Export.Format)
		runErr := export.Run(ctx, records, dest, bar)
		if err := dest.Close(); err != nil {
			log.Printf("Failed to close %s destination: %v", cfg.Export.Format, err)
			if runErr == nil {
				runErr = err
			}
		}
		if runErr != nil {
			return runErr
		}
		fmt.Printf("Exported %d deliveries\n", len(records))
		return nil
	},
}

func init() {
	flags := historyExportCmd.Flags()
	flags.String("format", "", "json, csv, parquet, postgres or kafka")
	flags.String("output-path", "", "Base directory for file exports")
	flags.String("bucket", "", "S3 bucket for parquet exports")
	flags.String("postgres-dsn", "", "Connection string for postgres exports")
	flags.String("topic", "", "Kafka topic for kafka exports")
	cobra.CheckErr(viper.BindPFlag("export.format", flags.Lookup("format")))
	cobra.CheckErr(viper.BindPFlag("export.output_path", flags.Lookup("output-path")))
	cobra.CheckErr(viper.BindPFlag("export.bucket", flags.Lookup("bucket")))
	cobra.CheckErr(viper.BindPFlag("export.postgres_dsn", flags.Lookup("postgres-dsn")))
	cobra.CheckErr(viper.BindPFlag("export.topic", flags.Lookup("topic")))

	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
