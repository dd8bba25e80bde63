package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Faultbox/texpack/internal/mapping"
	"github.com/Faultbox/texpack/internal/rewrite"
	"github.com/Faultbox/texpack/internal/source"
)

func newRewriteCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun     bool
		modelsDir  string
		textureKey string
	)

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Point item models at the packed atlas pages",
		Long: "Rewrite model files to reference the atlas page holding their texture.\n" +
			"A model's texture reference is matched against alias names by suffix;\n" +
			"the first alias in page order that ends with the bare texture name wins.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := rewrite.Options{
				ModelsDir:  cfg.Rewrite.ModelsDir,
				TextureKey: cfg.Rewrite.TextureKey,
				DryRun:     cfg.Rewrite.DryRun,
			}
			if cmd.Flags().Changed("dry-run") {
				opts.DryRun = dryRun
			}
			if cmd.Flags().Changed("models-dir") {
				opts.ModelsDir = modelsDir
			}
			if cmd.Flags().Changed("texture-key") {
				opts.TextureKey = textureKey
			}

			tables, err := mapping.LoadDir(cfg.OutputDir())
			if err != nil {
				return err
			}

			src, err := source.OpenDir(cfg.Input.Root)
			if err != nil {
				return fmt.Errorf("rewriting needs an unpacked pack directory: %w", err)
			}
			defer src.Close()

			report, err := rewrite.New(tables, opts, nil).Run(cmd.Context(), src)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Matches) > 0 {
				matches := newTableView("Model", "Reference", "Texture", "CMD").
					align(alignLeft, alignLeft, alignLeft, alignRight)
				for _, m := range report.Matches {
					matches.add(m.Model, m.Reference, m.Entry.Texture, strconv.Itoa(m.Entry.CustomModelData))
				}
				fmt.Fprintln(out, matches.render())
			}

			verb := "Rewrote"
			if opts.DryRun {
				verb = "Would rewrite"
			}
			fmt.Fprintf(out, "%s %d of %d model(s); %d unmatched, %d skipped\n",
				verb, report.Rewritten, report.Models, report.Unmatched, report.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report matches without writing models")
	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Path segments model files must be under")
	cmd.Flags().StringVar(&textureKey, "texture-key", "", "Key under \"textures\" holding the reference")
	return cmd
}
