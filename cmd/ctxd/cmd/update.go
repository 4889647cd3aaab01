package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/ui"
)

func newUpdateCmd() *cobra.Command {
	var (
		source      string
		contentType string
		tags        []string
		keepTags    bool
	)

	cmd := &cobra.Command{
		Use:   "update <context-id> [file]",
		Short: "Replace a context's content and metadata",
		Long: `Update replaces the content of an existing context with the given file
(or stdin) and regenerates its chunks and embeddings. Metadata is
replaced too; pass --keep-tags to carry the existing tags over when no
new ones are given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderer := ui.NewRenderer(cmd.OutOrStdout())

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			var content []byte
			if len(args) == 2 {
				content, err = os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", args[1], err)
				}
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}

			metadata := domain.ContextMetadata{
				Source:      source,
				ContentType: contentType,
				Tags:        tags,
			}
			if keepTags && len(tags) == 0 {
				existing, err := be.Get(ctx, args[0])
				if err != nil {
					return err
				}
				metadata.Tags = existing.Metadata.Tags
			}

			c, err := be.Update(ctx, args[0], string(content), metadata)
			if err != nil {
				return err
			}

			renderer.Success("updated %s", c.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source label")
	cmd.Flags().StringVar(&contentType, "type", "", "Content type label")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach (comma-separated or repeated)")
	cmd.Flags().BoolVar(&keepTags, "keep-tags", false, "Keep the existing tags when none are given")

	return cmd
}
