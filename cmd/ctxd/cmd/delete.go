package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/ui"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <context-id>",
		Short: "Delete a context and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			be, err := openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Close()

			if err := be.Delete(ctx, args[0]); err != nil {
				return err
			}

			ui.NewRenderer(cmd.OutOrStdout()).Success("deleted %s", args[0])
			return nil
		},
	}
}
