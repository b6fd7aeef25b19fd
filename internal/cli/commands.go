package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shoplist/internal/client"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/websocket"
)

func (a *app) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new empty list and hold it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if err := s.Create(cmd.Context()); err != nil {
				return explain(err, "")
			}
			fmt.Fprintln(a.out, s.ListID)
			return nil
		},
	}
}

func (a *app) idCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the ID of the held list, to share it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			fmt.Fprintln(a.out, s.ListID)
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var (
		search, filter, sort string
		asJSON               bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the held list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := shoplist.ParseFilter(filter)
			if err != nil {
				return err
			}
			so, err := shoplist.ParseSort(sort)
			if err != nil {
				return err
			}

			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			m := s.View(shoplist.Query{Search: search, Filter: f, Sort: so})
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}
			return shoplist.WriteText(a.out, m)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only items whose name or note contains this text")
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all|paid|pending")
	cmd.Flags().StringVar(&sort, "sort", "none", "none|alpha|price_desc|price_asc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var (
		quantity    int
		observation string
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an item to the held list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			err = s.Add(cmd.Context(), model.Draft{Name: args[0], Quantity: quantity, Observation: observation})
			if err != nil {
				return explain(err, s.ListID)
			}
			return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
		},
	}
	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "quantity")
	cmd.Flags().StringVarP(&observation, "obs", "o", "", "note, e.g. brand or size")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var (
		name        string
		quantity    int
		observation string
	)
	cmd := &cobra.Command{
		Use:   "edit ITEM",
		Short: "Change an item; its confirmed price is cleared",
		Long: `Change the name, quantity or note of an item, given by ID or row number.
Flags left out keep their current value. Editing sends the item back to
pending, so confirm its price again afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			itemID, err := s.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("item %q: %w", args[0], err)
			}
			current := s.Items[model.IndexOf(s.Items, itemID)]
			if !cmd.Flags().Changed("name") {
				name = current.Name
			}
			if !cmd.Flags().Changed("qty") {
				quantity = current.Quantity
			}
			if !cmd.Flags().Changed("obs") {
				observation = current.Observation
			}

			if err := s.Edit(cmd.Context(), itemID, name, quantity, observation); err != nil {
				return explain(err, s.ListID)
			}
			return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "new quantity")
	cmd.Flags().StringVarP(&observation, "obs", "o", "", "new note")
	return cmd
}

func (a *app) priceCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "price ITEM AMOUNT",
		Short: "Confirm the price paid for an item",
		Long: `Confirm the price of a pending item, given by ID or row number.
With --mode unit (the default) AMOUNT is the price of one unit and is
multiplied by the quantity; with --mode total it is the price of all of them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := shoplist.ParsePriceMode(mode)
			if err != nil {
				return err
			}
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("amount %q is not a number", args[1])
			}

			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			itemID, err := s.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("item %q: %w", args[0], err)
			}
			if err := s.Price(cmd.Context(), itemID, amount, pm); err != nil {
				return explain(err, s.ListID)
			}
			return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "unit", "unit|total")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm ITEM",
		Short: "Remove an item from the held list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			itemID, err := s.Resolve(args[0])
			if err != nil {
				return fmt.Errorf("item %q: %w", args[0], err)
			}
			name := s.Items[model.IndexOf(s.Items, itemID)].Name
			if !yes && !a.confirm(fmt.Sprintf("Remove %q?", name)) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err := s.Remove(cmd.Context(), itemID); err != nil {
				return explain(err, s.ListID)
			}
			return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the held list with the items of an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = a.in
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if len(s.Items) > 0 && !yes && !a.confirm(fmt.Sprintf("Replace the %d items of the list?", len(s.Items))) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err := s.Import(cmd.Context(), r); err != nil {
				return explain(err, s.ListID)
			}
			return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the held list as a JSON array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if len(args) == 0 || args[0] == "-" {
				return s.Export(a.out)
			}
			return exportFile(s, args[0])
		},
	}
}

func exportFile(s *client.Session, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := s.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (a *app) adoptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adopt ID",
		Short: "Hold someone else's list instead of the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := s.Adopt(cmd.Context(), args[0]); err != nil {
				return explain(err, args[0])
			}
			return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the held list for everyone and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if !yes && !a.confirm("Delete this list for everyone who holds it?") {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if err := s.Reset(cmd.Context()); err != nil {
				return explain(err, s.ListID)
			}
			fmt.Fprintln(a.out, "List deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the list again whenever someone changes it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.offline {
				return fmt.Errorf("watch needs a server")
			}
			ctx := cmd.Context()
			s, closeFn, err := a.loaded(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := shoplist.WriteText(a.out, s.View(shoplist.Query{})); err != nil {
				return err
			}
			c := client.New(a.cfg.ServerURL)
			return c.Watch(ctx, s.ListID, func(m websocket.Message) error {
				if m.Type == shoplist.ActionListDeleted {
					return fmt.Errorf("list %s was deleted", s.ListID)
				}
				if err := s.Refresh(ctx); err != nil {
					return explain(err, s.ListID)
				}
				fmt.Fprintf(a.out, "\n-- %s --\n", m.Type)
				return shoplist.WriteText(a.out, s.View(shoplist.Query{}))
			})
		},
	}
}
