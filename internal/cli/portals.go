package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"git.sr.ht/~jakintosh/portal/internal/portals"
)

func newPortalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portals",
		Short: "Manage the configured portals",
	}
	cmd.AddCommand(newPortalsListCmd(app))
	cmd.AddCommand(newPortalsAddCmd(app))
	cmd.AddCommand(newPortalsRemoveCmd(app))
	cmd.AddCommand(newPortalsUseCmd(app))
	cmd.AddCommand(newPortalsTitleCmd(app))
	return cmd
}

func newPortalsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List portals, marking the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPortals(func(ps *portals.Store) error {
				list, err := ps.List()
				if err != nil {
					return err
				}
				active, err := ps.Active()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, p := range list {
					mark := " "
					if p.Name == active.Name {
						mark = "*"
					}
					fmt.Fprintf(tw, "%s %s\t%s\n", mark, p.Name, p.DisplayTitle())
				}
				return tw.Flush()
			})
		},
	}
}

func newPortalsAddCmd(app *App) *cobra.Command {
	var title string
	var use bool

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a portal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPortals(func(ps *portals.Store) error {
				p, err := ps.Add(args[0], title)
				if err != nil {
					return err
				}
				if use {
					if err := ps.SetActive(p.Name); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", p.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title")
	cmd.Flags().BoolVar(&use, "use", false, "Make the new portal active")
	return cmd
}

func newPortalsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a portal from the list (its document is kept)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPortals(func(ps *portals.Store) error {
				if err := ps.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newPortalsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Make a portal active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPortals(func(ps *portals.Store) error {
				return ps.SetActive(args[0])
			})
		},
	}
}

func newPortalsTitleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "title NAME TITLE",
		Short: "Set a portal's display title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPortals(func(ps *portals.Store) error {
				return ps.SetTitle(args[0], args[1])
			})
		},
	}
}
