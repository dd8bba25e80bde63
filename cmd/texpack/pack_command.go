package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Faultbox/texpack/internal/pipeline"
)

func newPackCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pack",
		Short: "Deduplicate textures and write atlas pages with mapping tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Pages) == 0 {
				fmt.Fprintf(out, "No textures to pack under %s\n", cfg.Input.Root)
				return nil
			}

			pages := newTableView("Page", "Textures", "Entries", "Used", "Size", "Image").
				align(alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft)
			for _, p := range result.Pages {
				pages.add(
					strconv.Itoa(p.Page.Index),
					formatCount(len(p.Page.Placed)),
					formatCount(p.Table.Len()),
					formatPercent(p.Page.Utilization()),
					formatBytes(p.Bytes),
					filepath.Base(p.ImagePath),
				)
			}
			pages.footer = []string{
				"",
				formatCount(result.Stats.Unique - len(result.Rejected)),
				formatCount(result.Entries()),
				"",
				formatBytes(result.BytesWritten()),
				cfg.OutputDir(),
			}
			fmt.Fprintln(out, pages.render())

			if len(result.Rejected) > 0 {
				rejected := newTableView("Texture", "Width", "Height", "Aliases").
					align(alignLeft, alignRight, alignRight, alignRight)
				for _, r := range result.Rejected {
					rejected.add(
						r.Texture.Path,
						strconv.Itoa(r.Texture.Width),
						strconv.Itoa(r.Texture.Height),
						strconv.Itoa(len(r.Texture.Aliases)),
					)
				}
				fmt.Fprintf(out, "\n%d texture(s) exceed the %dpx page and were not packed:\n", len(result.Rejected), cfg.Packing.PageSize)
				fmt.Fprintln(out, rejected.render())
			}
			return nil
		},
	}
}
