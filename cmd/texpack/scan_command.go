package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Faultbox/texpack/internal/pipeline"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report texture deduplication statistics without packing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			textures, stats, err := pipeline.Scan(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary := newTableView("Metric", "Value").align(alignLeft, alignRight)
			summary.add("Files", formatCount(stats.Files))
			summary.add("Candidates", formatCount(stats.Candidates))
			summary.add("Unique textures", formatCount(stats.Unique))
			summary.add("Duplicates", formatCount(stats.Aliases-stats.Unique))
			summary.add("Skipped", formatCount(stats.Skipped))
			summary.add("Bytes read", formatBytes(stats.Bytes))
			if stats.LargestPath != "" {
				summary.add("Largest", fmt.Sprintf("%s (%dpx)", stats.LargestPath, stats.LargestSide))
			}
			fmt.Fprintln(out, summary.render())

			if list && len(textures) > 0 {
				unique := newTableView("Hash", "Size", "Representative", "Aliases").
					align(alignLeft, alignRight, alignLeft, alignRight)
				for _, t := range textures {
					unique.add(
						t.Hash[:12],
						fmt.Sprintf("%dx%d", t.Width, t.Height),
						t.Path,
						strconv.Itoa(len(t.Aliases)),
					)
				}
				fmt.Fprintln(out, unique.render())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List every unique texture")
	return cmd
}
