// Package cli wires the core services to a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/realvibe/evidence-engine/internal/adapters/driven/config/file"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/embedding/failover"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/embedding/local"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/embedding/ollama"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/embedding/openai"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/index/bruteforce"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/storage/sqlite"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
	"github.com/realvibe/evidence-engine/internal/core/ports/driving"
	"github.com/realvibe/evidence-engine/internal/core/services"
	"github.com/realvibe/evidence-engine/internal/logger"
	"github.com/realvibe/evidence-engine/internal/postprocessors"
	"github.com/realvibe/evidence-engine/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	flagVerbose bool
	flagDataDir string
	flagTenant  string
)

// Wired services, populated lazily by ensureServices.
var (
	configStore   driven.ConfigStore
	contentStore  *sqlite.Store
	vectorIndex   driven.VectorIndex
	embedder      driven.Embedder
	ingestService driving.IngestService
	searchService driving.SearchService
)

var rootCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Retrieval engine for site documents",
	Long: `evidence ingests tenant documents, chunks and embeds them, and
answers natural-language field queries with ranked, citation-ready
evidence records.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.evidence/data)")
	rootCmd.PersistentFlags().StringVar(&flagTenant, "tenant", "default", "tenant (site) identifier")
}

// Execute runs the CLI.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

// ensureServices bootstraps storage, the embedding chain, the vector
// index and the core services. Commands that touch data call it at
// the top of their RunE; metadata commands like version skip it.
func ensureServices() error {
	if ingestService != nil {
		return nil
	}

	// .env is optional; environment variables win over config file
	// values for secrets.
	_ = godotenv.Load()

	var err error
	configStore, err = file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	contentStore, err = sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder, err = buildEmbedder(configStore)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}

	vectorIndex = bruteforce.New()

	var chunkOpts []chunker.Option
	if size := configStore.GetInt("chunking.size"); size > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(size))
	}
	if overlap := configStore.GetInt("chunking.overlap"); overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(overlap))
	}
	pipeline := postprocessors.NewPipeline(chunker.New(chunkOpts...))

	ingest := services.NewIngestService(contentStore, vectorIndex, embedder, pipeline)
	ingestService = ingest
	searchService = services.NewSearchService(embedder, vectorIndex,
		services.NewEvidenceAssembler(contentStore))

	return nil
}

// buildEmbedder assembles the ranked provider chain: OpenAI when a key
// is configured, Ollama when enabled, and the local hashing embedder
// as the tier that cannot fail.
func buildEmbedder(cfg driven.ConfigStore) (driven.Embedder, error) {
	var chain []driven.EmbeddingProvider

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("embedding.openai_api_key")
	}
	if apiKey != "" {
		provider, err := openai.New(openai.Config{
			APIKey: apiKey,
			Model:  cfg.GetString("embedding.openai_model"),
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, provider)
		logger.Debug("OpenAI embedding provider enabled")
	}

	if cfg.GetBool("embedding.ollama_enabled") {
		chain = append(chain, ollama.New(ollama.Config{
			BaseURL: cfg.GetString("embedding.ollama_url"),
			Model:   cfg.GetString("embedding.ollama_model"),
		}))
		logger.Debug("Ollama embedding provider enabled")
	}

	chain = append(chain, local.New())

	return failover.New(chain)
}

// reindexTenant rebuilds the in-process vector index from persisted
// chunks. The index does not survive process restarts, so query
// commands run this before searching.
func reindexTenant(ctx context.Context) error {
	if err := ingestService.Reindex(ctx, flagTenant); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	return nil
}

// teardown closes everything ensureServices opened.
func teardown() {
	if embedder != nil {
		_ = embedder.Close()
	}
	if vectorIndex != nil {
		_ = vectorIndex.Close()
	}
	if contentStore != nil {
		_ = contentStore.Close()
	}
}
