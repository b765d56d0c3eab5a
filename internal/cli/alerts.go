package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List currently active alerts from the alert store",
	Run:   runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	alerts, err := postgres.NewAlertRepo(db).Active(ctx)
	if err != nil {
		slog.Error("Failed to query alerts", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tRULE\tLEVEL\tVALUE\tFIRED\tACK")

	for _, a := range alerts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%t\n",
			a.ID, a.RuleName, a.Level, a.MetricValue,
			a.Timestamp.Format("2006-01-02 15:04:05"), a.Acknowledged)
	}
	_ = w.Flush()
}
