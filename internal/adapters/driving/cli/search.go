package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

var (
	searchTopK          int
	searchMinSimilarity float64
	searchJSON          bool
)

// Output styles.
var (
	resultNameStyle = lipgloss.NewStyle().Bold(true)
	resultMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the tenant's documents for evidence",
	Long: `Embeds the query and returns the most similar passages as
citation-ready evidence records, ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results (0 = default)")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "minimum similarity score [0,1]")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if err := reindexTenant(ctx); err != nil {
		return err
	}

	records, err := searchService.Search(ctx, flagTenant, args[0], searchTopK, searchMinSimilarity)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputEvidenceJSON(cmd, records)
	}
	return outputEvidenceList(cmd, records)
}

func outputEvidenceJSON(cmd *cobra.Command, records []domain.EvidenceRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputEvidenceList(cmd *cobra.Command, records []domain.EvidenceRecord) error {
	if len(records) == 0 {
		cmd.Println("No evidence found.")
		return nil
	}

	for i, record := range records {
		cmd.Printf("  [%d] %s %s\n", i+1,
			resultNameStyle.Render(record.DocumentName),
			resultMetaStyle.Render(fmt.Sprintf("(p.%d, %.3f)", record.Page, record.Similarity)))
		cmd.Printf("      %s\n", record.Excerpt)
		cmd.Println()
	}
	return nil
}
