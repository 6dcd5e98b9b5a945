package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.sr.ht/~jakintosh/portal/internal/store"
)

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export NAME",
		Short: "Print a portal's document in canonical form",
		Long:  "Fetch a portal through the configured transport and print it as a JSON array. Legacy multi-portal documents are converted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, _, err := app.transports()
			if err != nil {
				return err
			}
			st := store.New(nil)
			if err := st.Load(cmd.Context(), fetcher, args[0]); err != nil {
				return err
			}
			data, err := st.Export()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
