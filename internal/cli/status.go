package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/guildhall/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored guild snapshots",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.Database.URL == "" {
		slog.Error("Snapshots are only persisted with database.url set")
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

	repo := postgres.NewSnapshotRepo(db)
	stats, err := repo.Stats(ctx)
	if err != nil {
		slog.Error("Failed to read snapshot stats", "error", err)
		os.Exit(1)
	}
	rows, err := repo.ListGuildRows(ctx)
	if err != nil {
		slog.Error("Failed to query snapshots", "error", err)
		os.Exit(1)
	}

	fmt.Printf("guilds: %d (updated %s), communities: %d (updated %s)\n\n",
		stats.Guilds, stamp(stats.GuildsUpdated), stats.Communities, stamp(stats.CommunityUpdated))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SLUG\tNAME\tREQUIREMENTS\tFETCHED")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Slug, r.Name, r.Requirements, stamp(r.FetchedAt))
	}
	_ = w.Flush()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}
