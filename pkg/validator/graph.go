package validator

import (
	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
)

// graph holds every document reachable from the entry point through
// implements, chunk and import references, with the problems found while
// reaching them.
type graph struct {
	entry   *config.Config
	configs []*config.Config
	chunks  []*config.Config // chunk documents referenced by path

	structural []error
	paths      []error

	visited map[string]bool
}

// roots returns the documents whose inheritance chains need checking.
func (g *graph) roots() []*config.Config {
	if g.entry == nil {
		return nil
	}
	return append([]*config.Config{g.entry}, g.chunks...)
}

func (v *Validator) walk(path string) *graph {
	g := &graph{visited: make(map[string]bool)}

	doc, err := v.loader.Load(path, "")
	if err != nil {
		g.record(err)
		return g
	}
	cfg, err := config.Parse(doc)
	if err != nil {
		g.record(err)
		return g
	}
	g.entry = cfg
	g.visited[cfg.SourcePath] = true
	v.visit(g, cfg)
	return g
}

func (v *Validator) visit(g *graph, cfg *config.Config) {
	g.configs = append(g.configs, cfg)

	if cfg.Implements != "" {
		if parent := v.follow(g, cfg.Implements, cfg.Dir(), true); parent != nil {
			v.visit(g, parent)
		}
	}

	for _, ref := range cfg.Chunks {
		if ref.Path == "" {
			continue
		}
		if chunk := v.follow(g, ref.Path, ref.BaseDir, false); chunk != nil {
			g.chunks = append(g.chunks, chunk)
			v.visit(g, chunk)
		}
	}

	for _, imp := range cfg.Imports {
		for _, file := range imp.Files() {
			doc, err := v.loader.Load(file, imp.BaseDir)
			if err != nil {
				g.record(errors.Wrapf(err, "import {%s} in %s", imp.Placeholder, imp.DeclaredIn))
				continue
			}
			if _, err := config.ParseVariations(doc); err != nil {
				g.record(err)
			}
		}
	}
}

// follow loads and parses a referenced template, prompt or chunk. It
// returns nil when the document was already visited or could not be read;
// in the latter case the problem is recorded. An ancestor of a kind that
// cannot be inherited from is left to the inheritance phase.
func (v *Validator) follow(g *graph, path, baseDir string, ancestor bool) *config.Config {
	abs, err := v.loader.Resolve(path, baseDir)
	if err != nil {
		g.record(err)
		return nil
	}
	if g.visited[abs] {
		return nil
	}
	g.visited[abs] = true

	doc, err := v.loader.Load(path, baseDir)
	if err != nil {
		g.record(err)
		return nil
	}
	if ancestor {
		if kind, err := config.Detect(doc); err == nil && (kind == config.KindVariations || kind == config.KindTheme) {
			return nil
		}
	}
	cfg, err := config.Parse(doc)
	if err != nil {
		g.record(err)
		return nil
	}
	return cfg
}

// record files err under the phase it belongs to.
func (g *graph) record(err error) {
	var nf *errors.NotFoundError
	var pe *errors.PortabilityError
	if errors.As(err, &nf) || errors.As(err, &pe) {
		g.paths = append(g.paths, err)
		return
	}
	g.structural = append(g.structural, err)
}
