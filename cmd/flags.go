package cmd

import (
	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/pipeline"
	"github.com/spf13/cobra"
)

// runFlags are the resolution flags shared by generate, validate and watch.
type runFlags struct {
	theme     string
	style     string
	mode      string
	seedMode  string
	seed      int64
	maxImages int
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.theme, "theme", "t", "", "Theme to overlay on the template's imports")
	cmd.Flags().StringVarP(&f.style, "style", "s", "", "Style variant of the imported files (e.g. sfw)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Override generation mode: combinatorial or random")
	cmd.Flags().StringVar(&f.seedMode, "seed-mode", "", "Override seed mode: fixed, progressive or random")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Override the base seed")
	cmd.Flags().IntVarP(&f.maxImages, "max-images", "n", 0, "Override the maximum number of records (-1 for all)")
}

// options converts the flags that were set into RunOptions.
func (f *runFlags) options(cmd *cobra.Command) pipeline.RunOptions {
	opts := pipeline.RunOptions{
		Theme:    f.theme,
		Style:    f.style,
		Mode:     config.Mode(f.mode),
		SeedMode: config.SeedMode(f.seedMode),
	}
	if opts.Style == "" && appSettings != nil {
		opts.Style = appSettings.Themes.DefaultStyle
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		opts.Seed = &seed
	}
	if cmd.Flags().Changed("max-images") {
		n := f.maxImages
		opts.MaxImages = &n
	} else if appSettings != nil && appSettings.Generation.MaxImages != 0 {
		n := appSettings.Generation.MaxImages
		opts.MaxImages = &n
	}
	return opts
}
