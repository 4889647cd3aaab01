package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/ui"
)

func newGetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <context-id>",
		Short: "Fetch a context by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			c, err := be.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(c, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			ui.NewRenderer(cmd.OutOrStdout()).Context(c)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
