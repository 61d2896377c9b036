// Package validator checks a template and everything it references without
// generating any records.
//
// Checks run in phases: structural, paths, inheritance, imports, templates.
// All problems of a phase are collected; later phases are skipped once a
// phase fails.
package validator

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/generator"
	"github.com/grovetools/promptgen/pkg/imports"
	"github.com/grovetools/promptgen/pkg/inherit"
	"github.com/grovetools/promptgen/pkg/loader"
	"github.com/grovetools/promptgen/pkg/template"
	"github.com/sirupsen/logrus"
)

// Phase names a validation phase.
type Phase string

const (
	PhaseStructural  Phase = "structural"
	PhasePaths       Phase = "paths"
	PhaseInheritance Phase = "inheritance"
	PhaseImports     Phase = "imports"
	PhaseTemplates   Phase = "templates"
)

// Phases lists the phases in execution order.
var Phases = []Phase{PhaseStructural, PhasePaths, PhaseInheritance, PhaseImports, PhaseTemplates}

// PhaseResult is the outcome of one phase.
type PhaseResult struct {
	Phase   Phase
	Errors  []error
	Skipped bool
}

// OK reports whether the phase ran and found nothing.
func (r PhaseResult) OK() bool {
	return !r.Skipped && len(r.Errors) == 0
}

// Report is the outcome of a validation run.
type Report struct {
	Path    string
	Phases  []PhaseResult
	Notices []string
}

// OK reports whether every phase passed.
func (r *Report) OK() bool {
	for _, p := range r.Phases {
		if !p.OK() {
			return false
		}
	}
	return true
}

// Failed returns the first failing phase.
func (r *Report) Failed() (PhaseResult, bool) {
	for _, p := range r.Phases {
		if len(p.Errors) > 0 {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// Err returns nil when the report passed, or an error summarizing the
// failing phase.
func (r *Report) Err() error {
	p, ok := r.Failed()
	if !ok {
		return nil
	}
	msgs := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		msgs[i] = e.Error()
	}
	err := errors.Newf("%s: %s phase failed with %d error(s)", r.Path, p.Phase, len(p.Errors))
	return errors.WithDetail(err, strings.Join(msgs, "\n"))
}

// Binder builds the generation context of a resolved configuration. The
// pipeline provides one that applies themes and styles.
type Binder interface {
	Bind(rc *config.ResolvedConfig) (*config.ResolvedContext, error)
}

// Validator runs the phases against one Loader.
type Validator struct {
	loader  *loader.Loader
	logger  *logrus.Logger
	inherit *inherit.Resolver
	imports *imports.Resolver
}

func New(l *loader.Loader, logger *logrus.Logger) *Validator {
	return &Validator{
		loader:  l,
		logger:  logger,
		inherit: inherit.New(l, logger),
		imports: imports.New(l, logger),
	}
}

// Validate checks the document at path. binder is used by the templates
// phase.
func (v *Validator) Validate(path string, binder Binder) *Report {
	report := &Report{Path: path}
	g := v.walk(path)

	phases := []struct {
		phase Phase
		run   func() []error
	}{
		{PhaseStructural, func() []error { return g.structural }},
		{PhasePaths, func() []error { return g.paths }},
		{PhaseInheritance, func() []error { return v.checkInheritance(g, report) }},
		{PhaseImports, func() []error { return v.checkImports(g) }},
		{PhaseTemplates, func() []error { return v.checkTemplates(g, binder, report) }},
	}

	failed := false
	for _, p := range phases {
		if failed {
			report.Phases = append(report.Phases, PhaseResult{Phase: p.phase, Skipped: true})
			continue
		}
		errs := p.run()
		report.Phases = append(report.Phases, PhaseResult{Phase: p.phase, Errors: errs})
		if len(errs) > 0 {
			failed = true
			v.logger.Debugf("validator: %s phase failed with %d error(s)", p.phase, len(errs))
		}
	}
	return report
}

func (v *Validator) checkInheritance(g *graph, report *Report) []error {
	var errs []error
	for _, cfg := range g.roots() {
		chain, err := v.inherit.Chain(cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n := versionNotice(chain); n != "" {
			report.Notices = append(report.Notices, n)
		}
	}
	return errs
}

func (v *Validator) checkImports(g *graph) []error {
	var all []config.Import
	for _, cfg := range g.configs {
		all = append(all, cfg.Imports...)
	}
	return v.imports.Conflicts(all)
}

func (v *Validator) checkTemplates(g *graph, binder Binder, report *Report) []error {
	rc, err := v.inherit.Resolve(g.entry)
	if err != nil {
		return []error{err}
	}
	ctx, err := binder.Bind(rc)
	if err != nil {
		return []error{err}
	}
	report.Notices = append(report.Notices, template.Notices(rc, ctx)...)

	var errs []error
	var unresolved []string
	var lead *template.Template
	for _, text := range []string{rc.Template, rc.NegativePrompt} {
		t, err := template.Parse(text, ctx.Chunks)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if lead == nil {
			lead = t
		} else {
			t.Follow(lead)
		}
		for _, name := range t.Unresolved(ctx.Imports) {
			if !contains(unresolved, name) {
				unresolved = append(unresolved, name)
			}
		}
		for _, name := range t.Names() {
			spec, _ := t.Spec(name)
			if set := ctx.Imports[name]; set.Len() > 0 {
				if _, err := spec.Select(set, rand.New(rand.NewPCG(0, 0))); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	if len(unresolved) > 0 {
		errs = append(errs, generator.Unresolved(unresolved, ctx.Available()))
	}
	return errs
}

// versionNotice reports differing major format versions along a chain.
func versionNotice(chain []*config.Config) string {
	majors := make(map[int]bool)
	var parts []string
	for _, c := range chain {
		m := config.MajorVersion(c.Version)
		if m < 0 {
			continue
		}
		majors[m] = true
		parts = append(parts, fmt.Sprintf("%s (%s)", c.SourcePath, c.Version))
	}
	if len(majors) < 2 {
		return ""
	}
	return "inheritance chain mixes format versions: " + strings.Join(parts, " -> ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
