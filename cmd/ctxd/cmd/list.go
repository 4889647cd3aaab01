package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/ui"
)

func newListCmd() *cobra.Command {
	var (
		tags   []string
		limit  int
		offset int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored contexts",
		Long: `List shows stored contexts in creation order. With --tags only
contexts carrying every given tag are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			contexts, err := be.List(ctx, tags, limit, offset)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(contexts, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			ui.NewRenderer(cmd.OutOrStdout()).ContextList(contexts)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Only contexts carrying every given tag")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of contexts to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of contexts to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
