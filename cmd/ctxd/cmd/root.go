// Package cmd provides the CLI commands for ctxd.
package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/config"
	"github.com/Aman-CERP/ctxd/internal/embed"
	"github.com/Aman-CERP/ctxd/internal/logging"
	"github.com/Aman-CERP/ctxd/internal/service"
	"github.com/Aman-CERP/ctxd/internal/store"
)

// Version is the ctxd release version.
const Version = "0.1.0"

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the ctxd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctxd",
		Short: "Store, chunk, embed, and retrieve text contexts",
		Long: `ctxd stores opaque text contexts, splits them into overlapping
chunks with deterministic embeddings, and retrieves them by similarity
search, tag filters, or explicit weighted references.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("ctxd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./ctxd.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newStoreCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogging(*cobra.Command, []string) error {
	level := "info"
	if debugMode {
		level = "debug"
	}
	cleanup, err := logging.SetupDefault(level)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

// services holds everything a command needs, plus its cleanup.
type services struct {
	cfg      *config.Config
	manager  *service.Manager
	searcher *service.Searcher
	close    func()
}

// openServices wires the store, embedder, and pipeline services for the
// given configuration. For the sqlite backend the data directory is
// locked against concurrent processes and the similarity index is
// rebuilt from the persisted chunk sets.
func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	var err error
	var st store.Store
	var lock *store.DirLock

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		lock = store.NewDirLock(filepath.Dir(cfg.Storage.Path))
		if err := lock.Lock(); err != nil {
			return nil, err
		}
		st, err = store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			_ = lock.Unlock()
			return nil, err
		}
	default:
		st = store.NewMemoryStore()
	}

	vectorizer := embed.NewCachedVectorizer(
		embed.NewHashVectorizer(cfg.Embedding.Dimension),
		cfg.Embedding.CacheSize,
	)
	embedder := embed.NewIndexEmbedder(vectorizer)

	manager, searcher, err := service.New(st, embedder, service.Config{
		MaxChunkSize:       cfg.Context.MaxChunkSize,
		ChunkOverlap:       cfg.Context.ChunkOverlap,
		MaxResults:         cfg.Context.MaxResults,
		TagCandidateGating: cfg.Context.TagCandidateGating,
	}, slog.Default())
	if err != nil {
		_ = st.Close()
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, err
	}

	if cfg.Storage.Backend == config.BackendSQLite {
		if err := manager.Rebuild(ctx); err != nil {
			_ = st.Close()
			_ = lock.Unlock()
			return nil, err
		}
	}

	return &services{
		cfg:      cfg,
		manager:  manager,
		searcher: searcher,
		close: func() {
			_ = embedder.Close()
			_ = st.Close()
			if lock != nil {
				_ = lock.Unlock()
			}
		},
	}, nil
}
