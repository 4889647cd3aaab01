package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var (
		tags   []string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search stored contexts",
		Long: `Search ranks stored contexts against the query. With --tags the search
is scoped to contexts carrying every given tag.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			var result domain.SearchResult
			if len(tags) > 0 {
				result, err = be.SearchWithTags(ctx, query, tags, limit)
			} else {
				result, err = be.Search(ctx, query, limit)
			}
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			ui.NewRenderer(cmd.OutOrStdout()).SearchResult(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Scope to contexts carrying every given tag")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of matches")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
