package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"git.sr.ht/~jakintosh/portal/internal/store"
	"git.sr.ht/~jakintosh/portal/internal/transport"
)

func newValidateCmd(app *App) *cobra.Command {
	var portal string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a file is a loadable portal document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if portal != "" {
				if data, err = transport.SelectPortal(data, portal); err != nil {
					return err
				}
			}
			st := store.New(nil)
			if err := st.LoadFromFile(bytes.NewReader(data)); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			cats := st.GetAll()

			links := 0
			for _, c := range cats {
				links += len(c.Links)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d categories, %d links\n", args[0], len(cats), links)
			return nil
		},
	}

	cmd.Flags().StringVar(&portal, "portal", "", "Select this portal from a legacy multi-portal document")
	return cmd
}
