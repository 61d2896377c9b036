package cmd

import (
	"fmt"

	"github.com/grovetools/promptgen/pkg/validator"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "validate <template.yaml>",
		Short: "Check a template and everything it references without generating",
		Long: `Runs the validation phases in order: structural, paths, inheritance,
imports and templates. Every problem of a phase is reported; later phases are
skipped once a phase fails. Notices (unused imports, conflicting annotations,
mixed format versions) never fail validation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := newPipeline().Validate(args[0], flags.options(cmd))
			printReport(report)
			return report.Err()
		},
	}

	flags.register(cmd)
	return cmd
}

func printReport(r *validator.Report) {
	for _, p := range r.Phases {
		switch {
		case p.Skipped:
			pterm.Println(pterm.Gray(fmt.Sprintf("  - %s (skipped)", p.Phase)))
		case len(p.Errors) == 0:
			pterm.Success.Println(string(p.Phase))
		default:
			pterm.Error.Printf("%s: %d error(s)\n", p.Phase, len(p.Errors))
			for _, err := range p.Errors {
				pterm.Println("    " + err.Error())
			}
		}
	}
	for _, n := range r.Notices {
		pterm.Warning.Println(n)
	}
	if r.OK() {
		pterm.Success.Printf("%s is valid\n", r.Path)
	}
}
