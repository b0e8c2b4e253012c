package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nobuki/engram/internal/config"
	"github.com/nobuki/engram/internal/engine"
	"github.com/nobuki/engram/internal/server"
	"github.com/nobuki/engram/internal/store"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to engram.toml (default ~/.engram/engram.toml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local .env files are a convenience for OLLAMA_URL etc.; absence is fine.
	godotenv.Load()

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	db, eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "engram serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// openEngine opens the database and wires up the recall engine per config.
// Shared by serve and the one-shot CLI commands.
func openEngine(cfg config.Config) (*store.DB, *engine.Engine, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	eng := engine.New(db, engine.RecallConfigFrom(cfg.Recall))
	if cfg.Embedding.TimeoutSeconds > 0 {
		eng.EmbedTimeout = time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second
	}

	if engine.ProbeOllama(cfg.Embedding.OllamaURL, cfg.Embedding.Model) {
		eng.SetEmbedder(engine.NewOllamaEmbedder(cfg.Embedding.OllamaURL, cfg.Embedding.Model))
		fmt.Fprintf(os.Stderr, "  embedder: ollama (%s)\n", cfg.Embedding.Model)
	} else {
		fmt.Fprintf(os.Stderr, "warning: ollama unreachable at %s, recall degrades to recency\n", cfg.Embedding.OllamaURL)
	}

	return db, eng, nil
}
