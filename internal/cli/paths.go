package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/guildhall/internal/gateway"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print every guild slug that gets a page",
	Args:  cobra.NoArgs,
	Run:   runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func newGateway() *gateway.Gateway {
	cfg := loadConfig()

	fixtures, err := gateway.LoadFixtures()
	if err != nil {
		slog.Error("Failed to load fixtures", "error", err)
		os.Exit(1)
	}

	client := gateway.NewClient(gateway.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	})
	return gateway.New(client, fixtures, cfg.Render.Revalidate)
}

func runPaths(cmd *cobra.Command, args []string) {
	gw := newGateway()

	res := gw.FetchAllGuildSlugs(context.Background())
	for _, slug := range res.Value {
		fmt.Println(slug)
	}
	slog.Debug("Slugs listed", "count", len(res.Value), "source", res.Source)
}
