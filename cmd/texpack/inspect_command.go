package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/texpack/internal/mapping"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "inspect [atlas_N.json...]",
		Short: "Print the entries of page mapping tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tables []*mapping.Table
			if len(args) == 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				tables, err = mapping.LoadDir(cfg.OutputDir())
				if err != nil {
					return err
				}
			}
			for _, name := range args {
				t, err := mapping.ReadFile(name)
				if err != nil {
					return err
				}
				tables = append(tables, t)
			}

			out := cmd.OutOrStdout()
			if len(tables) == 0 {
				fmt.Fprintln(out, "No mapping tables found")
				return nil
			}

			view := newTableView("Page", "Alias", "X", "Y", "W", "H", "CMD").
				align(alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight)
			shown := 0
			for _, t := range tables {
				for _, e := range t.Entries() {
					if filter != "" && !strings.Contains(e.Alias, filter) {
						continue
					}
					view.add(
						strconv.Itoa(t.Page),
						e.Alias,
						strconv.Itoa(e.X),
						strconv.Itoa(e.Y),
						strconv.Itoa(e.Width),
						strconv.Itoa(e.Height),
						strconv.Itoa(e.CustomModelData),
					)
					shown++
				}
			}
			view.footer = []string{"", formatCount(shown) + " entries"}
			fmt.Fprintln(out, view.render())
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "alias", "a", "", "Only show aliases containing this text")
	return cmd
}
