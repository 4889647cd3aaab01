package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/ui"
)

// storeConcurrency bounds parallel ingestion when storing many files.
const storeConcurrency = 4

func newStoreCmd() *cobra.Command {
	var (
		source      string
		contentType string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "store [file...]",
		Short: "Store one or more contexts",
		Long: `Store reads content from the given files (or stdin when no files are
given), splits it into chunks, embeds them, and persists everything.
Each file becomes its own context; its path is recorded as the source
unless --source overrides it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderer := ui.NewRenderer(cmd.OutOrStdout())

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			if len(args) == 0 {
				content, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				c, err := be.Store(ctx, string(content), domain.ContextMetadata{
					Source:      source,
					ContentType: contentType,
					Tags:        tags,
				})
				if err != nil {
					return err
				}
				renderer.Success("stored %s", c.ID)
				return nil
			}

			return storeFiles(ctx, be, renderer, args, source, contentType, tags)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source label (defaults to the file path)")
	cmd.Flags().StringVar(&contentType, "type", "", "Content type label")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach (comma-separated or repeated)")

	return cmd
}

// storeFiles ingests files concurrently. One failure cancels the rest;
// contexts already stored by other workers stay stored.
func storeFiles(ctx context.Context, be backend, renderer *ui.Renderer, paths []string, source, contentType string, tags []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(storeConcurrency)

	var mu sync.Mutex

	for _, path := range paths {
		path := path
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			src := source
			if src == "" {
				src = path
			}
			c, err := be.Store(gctx, string(content), domain.ContextMetadata{
				Source:      src,
				ContentType: contentType,
				Tags:        tags,
			})
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", path, err)
			}

			mu.Lock()
			renderer.Success("stored %s  %s", c.ID, path)
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}
