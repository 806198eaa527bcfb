package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/guildhall/internal/infra/storage/postgres"
	"github.com/vietddude/guildhall/internal/site"
)

var (
	asJSON bool
	stored bool
)

var guildCmd = &cobra.Command{
	Use:   "guild [slug]",
	Short: "Fetch a guild and print its classified requirements",
	Args:  cobra.ExactArgs(1),
	Run:   runGuild,
}

func init() {
	guildCmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	guildCmd.Flags().BoolVar(&stored, "stored", false, "read the last saved snapshot instead of the API")
	rootCmd.AddCommand(guildCmd)
}

func runGuild(cmd *cobra.Command, args []string) {
	var page site.GuildPage
	if stored {
		page = storedGuild(args[0])
	} else {
		res, err := newGateway().FetchGuildBySlug(context.Background(), args[0])
		if err != nil {
			slog.Error("Failed to fetch guild", "slug", args[0], "error", err)
			os.Exit(1)
		}
		page = site.BuildGuildPage(res.Value)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(page)
		return
	}

	fmt.Printf("%s (%s), %d members\n\n", page.Name, page.URLName, page.MemberCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tTYPE\tKIND\tREQUIREMENT\tLOGIC")
	for i, card := range page.Requirements {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1, card.Directive.Type, card.Directive.Kind, describe(card), card.Separator)
	}
	_ = w.Flush()

	for _, t := range page.Unsupported {
		slog.Debug("Unsupported requirement skipped", "type", t)
	}
}

func storedGuild(slug string) site.GuildPage {
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

	page, fetchedAt, err := site.StoredGuildPage(ctx, postgres.NewSnapshotRepo(db), slug)
	if err != nil {
		slog.Error("Failed to read guild snapshot", "slug", slug, "error", err)
		os.Exit(1)
	}
	slog.Info("Using stored snapshot", "slug", slug, "fetched_at", stamp(fetchedAt))
	return page
}

func describe(card site.RequirementCard) string {
	d := card.Directive
	switch {
	case d.Token != nil:
		return fmt.Sprintf("Hold %s %s", d.Token.Amount, d.Token.Symbol)
	case d.Snapshot != nil:
		return "Snapshot strategy " + d.Snapshot.Strategy
	case d.Whitelist != nil:
		return fmt.Sprintf("Be one of %d whitelisted addresses", len(d.Whitelist))
	default:
		return d.Text()
	}
}
