package cmd

import (
	"github.com/grovetools/promptgen/internal/scaffold"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var projectType string

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a starter template project",
		Long: `Creates a starter project: a template, a chunk, variation files, a theme and
a prompt document. The files are yours to edit.

It will not overwrite existing files.

Examples:
  promptgen init              # Initialize in the current directory
  promptgen init my-prompts   # Initialize in ./my-prompts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			files, err := scaffold.Init(dir, projectType, getLogger())
			if err != nil {
				return err
			}
			for _, f := range files {
				pterm.Success.Println("Created " + f)
			}
			pterm.Info.Println("Next: promptgen generate portrait.template.yaml --format table")
			return nil
		},
	}

	cmd.Flags().StringVar(&projectType, "type", "basic", "Starter project type")
	return cmd
}
