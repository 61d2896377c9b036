package cmd

import (
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newThemesCmd() *cobra.Command {
	var roots []string

	cmd := &cobra.Command{
		Use:   "themes [template.yaml]",
		Short: "List the themes available to a template",
		Long: `Lists explicit themes (directories with a theme.yaml) and implicit themes
(files named {theme}_{category}[.style].yaml) found in the template's
themes.search_paths and explicit entries, the settings' theme roots and
any --root directories.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPipeline()

			var settings *config.ThemeSettings
			if len(args) == 1 {
				rc, err := p.ResolveConfig(args[0])
				if err != nil {
					return err
				}
				settings = rc.Themes
			}

			themes, err := p.Themes().Available(settings, append(p.ThemeRoots(), roots...))
			if err != nil {
				return err
			}
			if len(themes) == 0 {
				pterm.Info.Println("No themes found")
				return nil
			}

			data := pterm.TableData{{"Theme", "Source", "Styles", "Placeholders", "Location"}}
			for _, t := range themes {
				data = append(data, []string{
					t.Name,
					string(t.Source),
					strings.Join(t.Styles, ", "),
					strings.Join(t.Placeholders(), ", "),
					t.Dir,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().StringSliceVar(&roots, "root", nil, "Additional theme root directory (repeatable)")
	return cmd
}
