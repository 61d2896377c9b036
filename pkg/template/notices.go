package template

import (
	"fmt"

	"github.com/grovetools/promptgen/pkg/config"
)

// Notices returns the non-fatal findings for a bound template: names used
// with different annotations, then declared imports no placeholder uses.
// Text that does not parse contributes nothing; Generate reports it.
func Notices(rc *config.ResolvedConfig, ctx *config.ResolvedContext) []string {
	var out []string
	used := make(map[string]bool)
	for _, text := range []string{rc.Template, rc.NegativePrompt} {
		t, err := Parse(text, ctx.Chunks)
		if err != nil {
			continue
		}
		for _, name := range t.Names() {
			used[name] = true
		}
		for _, name := range t.Conflicting() {
			out = append(out, fmt.Sprintf("{%s} is used with different annotations; the first occurrence selects", name))
		}
	}
	for _, imp := range rc.Imports {
		if !used[imp.Placeholder] {
			out = append(out, fmt.Sprintf("import {%s} declared in %s is never used", imp.Placeholder, imp.DeclaredIn))
		}
	}
	return out
}
