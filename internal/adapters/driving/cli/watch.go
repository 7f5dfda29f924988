package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/realvibe/evidence-engine/internal/logger"
)

// watchSettleDelay is how long a file must stay quiet before it is
// ingested. Editors and copies emit several write events per file.
const watchSettleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents dropped into a directory",
	Long: `Watches a drop directory and ingests every file written into it.
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (tenant %s). Ctrl-C to stop.\n", dir, flagTenant)

	// Per-path settle timers: every event resets the path's timer, and
	// ingestion fires only after the file goes quiet.
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := event.Name

			mu.Lock()
			if timer, exists := timers[path]; exists {
				timer.Stop()
			}
			timers[path] = time.AfterFunc(watchSettleDelay, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				ingestDropped(ctx, cmd, path)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// ingestDropped uploads and processes a single dropped file. Errors
// are reported and swallowed so one bad file does not stop the watch.
func ingestDropped(ctx context.Context, cmd *cobra.Command, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s: %v", path, err)
		return
	}
	if len(raw) == 0 {
		return
	}

	result, err := ingestService.Upload(ctx, flagTenant, filepath.Base(path), raw)
	if err != nil {
		logger.Warn("Uploading %s: %v", path, err)
		return
	}
	if result.Duplicate {
		cmd.Printf("%s: already ingested\n", path)
		return
	}

	text, ok := extractText(raw)
	if !ok {
		if err := ingestService.FailExtraction(ctx, flagTenant, result.DocumentID, "not valid text"); err != nil {
			logger.Warn("Marking %s failed: %v", path, err)
		}
		cmd.Printf("%s: text extraction failed\n", path)
		return
	}

	outcome, err := ingestService.CompleteExtraction(ctx, flagTenant, result.DocumentID, text)
	if err != nil {
		logger.Warn("Processing %s: %v", path, err)
		return
	}
	cmd.Printf("%s: document %s, %d chunks, %d embedded\n",
		path, result.DocumentID, outcome.ChunksCreated, outcome.EmbeddingsCreated)
}
