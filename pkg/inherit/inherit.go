// Package inherit folds `implements` chains into resolved configurations.
package inherit

import (
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/loader"
	"github.com/sirupsen/logrus"
)

// PromptSlot marks where a prompt document's text is injected.
const PromptSlot = "{prompt}"

// compatible lists the ancestor kinds each kind may implement.
var compatible = map[config.Kind][]config.Kind{
	config.KindTemplate: {config.KindTemplate},
	config.KindPrompt:   {config.KindTemplate, config.KindPrompt},
	config.KindChunk:    {config.KindChunk},
}

// Resolver resolves inheritance using a shared Loader.
type Resolver struct {
	loader *loader.Loader
	logger *logrus.Logger
}

// New creates a Resolver.
func New(l *loader.Loader, logger *logrus.Logger) *Resolver {
	return &Resolver{loader: l, logger: logger}
}

// Chain returns cfg and its ancestors, root ancestor first.
func (r *Resolver) Chain(cfg *config.Config) ([]*config.Config, error) {
	chain := []*config.Config{cfg}
	visited := map[string]bool{cfg.SourcePath: true}

	cur := cfg
	for cur.Implements != "" {
		parentPath, err := r.loader.Resolve(cur.Implements, cur.Dir())
		if err != nil {
			return nil, &errors.InheritanceError{Child: cur.SourcePath, Parent: cur.Implements, Reason: "invalid reference", Err: err}
		}
		if visited[parentPath] {
			return nil, &errors.InheritanceError{Child: cur.SourcePath, Parent: parentPath, Reason: "inheritance cycle"}
		}
		visited[parentPath] = true

		doc, err := r.loader.Load(cur.Implements, cur.Dir())
		if err != nil {
			var nf *errors.NotFoundError
			if errors.As(err, &nf) {
				return nil, &errors.InheritanceError{Child: cur.SourcePath, Parent: parentPath, Reason: "ancestor not found"}
			}
			return nil, &errors.InheritanceError{Child: cur.SourcePath, Parent: parentPath, Reason: "ancestor could not be loaded", Err: err}
		}

		parent, err := config.Parse(doc)
		if err != nil {
			return nil, &errors.InheritanceError{Child: cur.SourcePath, Parent: parentPath, Reason: "ancestor is not a template, chunk or prompt", Err: err}
		}
		if err := CheckCompatible(cur.Kind, parent.Kind); err != nil {
			return nil, &errors.InheritanceError{Child: cur.SourcePath, Parent: parentPath, Reason: err.Error()}
		}

		r.logger.Debugf("inherit: %s implements %s", cur.SourcePath, parentPath)
		chain = append([]*config.Config{parent}, chain...)
		cur = parent
	}
	return chain, nil
}

// CheckCompatible reports whether a child of kind child may implement an
// ancestor of kind parent.
func CheckCompatible(child, parent config.Kind) error {
	for _, k := range compatible[child] {
		if k == parent {
			return nil
		}
	}
	return errors.Newf("a %s cannot implement a %s", child, parent)
}

// Resolve folds cfg's ancestor chain, root to leaf, into a ResolvedConfig.
// Chunks, imports, parameters and chunk defaults merge with the descendant
// winning; the template and negative prompt are replaced unless the
// descendant leaves them empty.
func (r *Resolver) Resolve(cfg *config.Config) (*config.ResolvedConfig, error) {
	chain, err := r.Chain(cfg)
	if err != nil {
		return nil, err
	}

	rc := &config.ResolvedConfig{
		Kind:       cfg.Kind,
		Name:       cfg.Name,
		SourcePath: cfg.SourcePath,
		Parameters: make(map[string]interface{}),
		Strategy:   config.DefaultStrategy(),
	}

	for _, c := range chain {
		rc.Chain = append(rc.Chain, c.SourcePath)
		rc.Chunks = mergeChunks(rc.Chunks, c.Chunks)
		rc.Imports = mergeImports(rc.Imports, c.Imports)
		rc.Parameters = MergeParameters(rc.Parameters, c.Parameters)
		rc.Defaults = mergeStrings(rc.Defaults, c.Defaults)
		rc.Strategy = rc.Strategy.Apply(c.Generation)

		if strings.TrimSpace(c.Template) != "" {
			rc.Template = c.Template
		}
		if c.Prompt != "" {
			rc.Template = injectPrompt(rc.Template, c.Prompt)
		}
		if c.NegativePrompt != "" {
			rc.NegativePrompt = c.NegativePrompt
		}
		if c.Themes != nil {
			rc.Themes = c.Themes
		}
	}
	rc.Template = strings.ReplaceAll(rc.Template, PromptSlot, "")

	if err := rc.Strategy.Validate(); err != nil {
		return nil, &errors.ParseError{Path: cfg.SourcePath, Reason: "invalid generation settings", Err: err}
	}

	r.logger.Debugf("inherit: resolved %s through %d document(s)", cfg.SourcePath, len(chain))
	return rc, nil
}

// ResolveChunks loads every chunk referenced by rc, resolving each chunk's
// own inheritance and applying the reference's field overrides. Chunks
// declared inside chunk documents are resolved too; a name already
// declared closer to rc keeps its definition.
func (r *Resolver) ResolveChunks(rc *config.ResolvedConfig) (map[string]*config.ChunkDefinition, error) {
	out := make(map[string]*config.ChunkDefinition, len(rc.Chunks))
	pending := append([]config.ChunkRef(nil), rc.Chunks...)
	for len(pending) > 0 {
		ref := pending[0]
		pending = pending[1:]
		if _, ok := out[ref.Name]; ok {
			continue
		}
		def, nested, err := r.resolveChunk(ref)
		if err != nil {
			return nil, err
		}
		out[ref.Name] = def
		pending = append(pending, nested...)
	}
	return out, nil
}

// resolveChunk returns the definition of ref and the chunks its document
// declares.
func (r *Resolver) resolveChunk(ref config.ChunkRef) (*config.ChunkDefinition, []config.ChunkRef, error) {
	if ref.Path == "" {
		return &config.ChunkDefinition{
			Name:       ref.Name,
			Template:   ref.Template,
			Fields:     mergeStrings(nil, ref.Fields),
			SourcePath: ref.DeclaredIn,
		}, nil, nil
	}

	doc, err := r.loader.Load(ref.Path, ref.BaseDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "chunk %q declared in %s", ref.Name, ref.DeclaredIn)
	}
	cfg, err := config.ParseChunk(doc)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "chunk %q declared in %s", ref.Name, ref.DeclaredIn)
	}
	resolved, err := r.Resolve(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &config.ChunkDefinition{
		Name:       ref.Name,
		Template:   resolved.Template,
		Fields:     mergeStrings(resolved.Defaults, ref.Fields),
		Imports:    resolved.Imports,
		SourcePath: resolved.SourcePath,
	}, resolved.Chunks, nil
}

func injectPrompt(template, prompt string) string {
	switch {
	case strings.Contains(template, PromptSlot):
		return strings.ReplaceAll(template, PromptSlot, prompt)
	case strings.TrimSpace(template) == "":
		return prompt
	default:
		return template + ", " + prompt
	}
}

func mergeChunks(base, override []config.ChunkRef) []config.ChunkRef {
	out := append([]config.ChunkRef(nil), base...)
	for _, c := range override {
		replaced := false
		for i := range out {
			if out[i].Name == c.Name {
				out[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

func mergeImports(base, override []config.Import) []config.Import {
	out := append([]config.Import(nil), base...)
	for _, imp := range override {
		replaced := false
		for i := range out {
			if out[i].Placeholder == imp.Placeholder {
				out[i] = imp
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, imp)
		}
	}
	return out
}

// MergeParameters returns base overlaid with override. Nested maps merge
// recursively; any other value in override replaces the base value.
func MergeParameters(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if sub, ok := v.(map[string]interface{}); ok {
			if prev, ok := out[k].(map[string]interface{}); ok {
				out[k] = MergeParameters(prev, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func mergeStrings(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
