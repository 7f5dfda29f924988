package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the tenant's indexed corpus",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if err := reindexTenant(ctx); err != nil {
		return err
	}

	stats, err := ingestService.Stats(ctx, flagTenant)
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Tenant:                    %s\n", flagTenant)
	cmd.Printf("Documents:                 %d\n", stats.TotalDocuments)
	cmd.Printf("Chunks:                    %d\n", stats.TotalChunks)
	cmd.Printf("Documents with embeddings: %d\n", stats.DocumentsWithEmbeddings)
	provider := stats.ActiveEmbeddingProvider
	if provider == "" {
		provider = "(none reachable)"
	}
	cmd.Printf("Embedding provider:        %s\n", provider)
	return nil
}
