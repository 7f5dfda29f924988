package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Upload and index documents",
	Long: `Uploads one or more files for the tenant, extracts their text,
chunks and embeds it. Re-ingesting identical bytes is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	ctx := cmd.Context()

	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		result, err := ingestService.Upload(ctx, flagTenant, filepath.Base(path), raw)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", path, err)
		}
		if result.Duplicate {
			cmd.Printf("%s: already ingested (document %s)\n", path, result.DocumentID)
			continue
		}

		text, ok := extractText(raw)
		if !ok {
			if err := ingestService.FailExtraction(ctx, flagTenant, result.DocumentID, "not valid text"); err != nil {
				return fmt.Errorf("marking %s failed: %w", path, err)
			}
			cmd.Printf("%s: uploaded but text extraction failed\n", path)
			continue
		}

		outcome, err := ingestService.CompleteExtraction(ctx, flagTenant, result.DocumentID, text)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}

		cmd.Printf("%s: document %s, %d chunks, %d embedded",
			path, result.DocumentID, outcome.ChunksCreated, outcome.EmbeddingsCreated)
		if outcome.EmbeddingsFailed > 0 {
			cmd.Printf(" (%d failed)", outcome.EmbeddingsFailed)
		}
		cmd.Println()
	}

	return nil
}

// extractText treats the raw bytes as plain text. Binary uploads are
// rejected so they surface as failed extractions rather than garbage
// chunks.
func extractText(raw []byte) (string, bool) {
	if !utf8.Valid(raw) || bytes.ContainsRune(raw, 0) {
		return "", false
	}
	return string(raw), true
}
