package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/domain"
	"github.com/Aman-CERP/ctxd/internal/ui"
)

func newResolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <context-id[:weight]>...",
		Short: "Retrieve contexts by explicit references",
		Long: `Resolve fetches the referenced contexts directly, without searching.
Each reference may carry a weight after a colon (e.g. 3f1c...:0.5);
unweighted references score 1.0. References that do not resolve are
skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			references := make([]domain.ContextReference, 0, len(args))
			for _, arg := range args {
				ref, err := parseReference(arg)
				if err != nil {
					return err
				}
				references = append(references, ref)
			}

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			result, err := be.Resolve(ctx, references)
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

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

// parseReference splits an id[:weight] argument.
func parseReference(arg string) (domain.ContextReference, error) {
	id, weightPart, found := strings.Cut(arg, ":")
	if id == "" {
		return domain.ContextReference{}, fmt.Errorf("empty context id in reference %q", arg)
	}
	ref := domain.ContextReference{ContextID: id}
	if found {
		weight, err := strconv.ParseFloat(weightPart, 64)
		if err != nil {
			return domain.ContextReference{}, fmt.Errorf("invalid weight in reference %q: %w", arg, err)
		}
		ref.Weight = &weight
	}
	return ref, nil
}
