package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/p-lizarazo/coursechat/internal/app"
	"github.com/p-lizarazo/coursechat/internal/config"
	"github.com/p-lizarazo/coursechat/internal/log"
)

var (
	ingestDir   string
	ingestClear bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index course documents into the vector store",
	Long: `Ingest parses every .txt course document in the docs folder, splits it
into chunks, embeds them and stores everything in PostgreSQL. Courses
whose exact title is already indexed are skipped unless --clear is set.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "docs folder (overrides docs_dir config)")
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "remove all indexed data before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dir := cfg.DocsDir
	if ingestDir != "" {
		dir = ingestDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	courses, chunks, err := a.RAG.AddCourseFolder(ctx, dir, ingestClear)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("Indexed %d courses (%d chunks) from %s\n", courses, chunks, dir)
	return nil
}
