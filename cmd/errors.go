package cmd

import (
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/pterm/pterm"
)

// reportError prints err with its hints.
func reportError(err error) {
	pterm.Error.Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.Println(hint)
	}
}
