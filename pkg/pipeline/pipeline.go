// Package pipeline composes loading, resolution and generation into one
// entry point.
package pipeline

import (
	"maps"
	"path/filepath"
	"sort"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/generator"
	"github.com/grovetools/promptgen/pkg/imports"
	"github.com/grovetools/promptgen/pkg/inherit"
	"github.com/grovetools/promptgen/pkg/loader"
	"github.com/grovetools/promptgen/pkg/template"
	"github.com/grovetools/promptgen/pkg/theme"
	"github.com/grovetools/promptgen/pkg/validator"
	"github.com/sirupsen/logrus"
)

// Stage names reported in StageError.
const (
	StageLoad        = "load"
	StageInheritance = "inheritance"
	StageChunks      = "chunks"
	StageTheme       = "theme"
	StageImports     = "imports"
	StageGenerate    = "generate"
)

// RunOptions selects a theme and style and overrides generation settings.
// Zero values leave the documents' settings in place.
type RunOptions struct {
	Theme     string
	Style     string
	Mode      config.Mode
	SeedMode  config.SeedMode
	Seed      *int64
	MaxImages *int
}

// Result is the outcome of Run.
type Result struct {
	Config  *config.ResolvedConfig
	Context *config.ResolvedContext
	Records []generator.Record
}

// Pipeline owns one document cache and the resolvers sharing it. It is not
// safe for concurrent use.
type Pipeline struct {
	logger *logrus.Logger
	loader *loader.Loader

	themeRoots   []string
	knownStyles  []string
	fallbackDirs []string

	inherit   *inherit.Resolver
	imports   *imports.Resolver
	themes    *theme.Resolver
	generator *generator.Generator
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoader shares an existing Loader and its cache.
func WithLoader(l *loader.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithThemeRoots adds directories searched for themes after those named by
// the template.
func WithThemeRoots(roots ...string) Option {
	return func(p *Pipeline) { p.themeRoots = append(p.themeRoots, roots...) }
}

// WithKnownStyles adds style tags recognized in file names.
func WithKnownStyles(styles ...string) Option {
	return func(p *Pipeline) { p.knownStyles = append(p.knownStyles, styles...) }
}

// WithFallbackDirs adds directories searched for styled files after those
// named by the template.
func WithFallbackDirs(dirs ...string) Option {
	return func(p *Pipeline) { p.fallbackDirs = append(p.fallbackDirs, dirs...) }
}

func New(logger *logrus.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.loader == nil {
		p.loader = loader.New(logger)
	}
	p.inherit = inherit.New(p.loader, logger)
	p.imports = imports.New(p.loader, logger)
	p.themes = theme.New(p.loader, logger)
	p.generator = generator.New(logger)
	return p
}

// Loader returns the pipeline's document cache.
func (p *Pipeline) Loader() *loader.Loader {
	return p.loader
}

// Themes returns the theme resolver.
func (p *Pipeline) Themes() *theme.Resolver {
	return p.themes
}

// ThemeRoots returns the extra theme roots.
func (p *Pipeline) ThemeRoots() []string {
	return append([]string(nil), p.themeRoots...)
}

// Resolve loads the document at path and builds its resolved configuration
// and generation context. The returned configuration carries the effective
// strategy with opts applied.
func (p *Pipeline) Resolve(path string, opts RunOptions) (*config.ResolvedConfig, *config.ResolvedContext, error) {
	rc, err := p.ResolveConfig(path)
	if err != nil {
		return nil, nil, err
	}
	rc = withOverrides(rc, opts)
	if err := rc.Strategy.Validate(); err != nil {
		return nil, nil, &errors.StageError{Stage: StageInheritance, Err: err}
	}

	ctx, err := p.bind(rc, opts)
	if err != nil {
		return nil, nil, err
	}
	for _, n := range ctx.Notices {
		p.logger.Warn(n)
	}
	p.logger.Infof("Resolved %s: %d import(s), %d chunk(s)", rc.Name, len(ctx.Imports), len(ctx.Chunks))
	return rc, ctx, nil
}

// ResolveConfig loads the document at path and folds its inheritance
// chain, without binding imports.
func (p *Pipeline) ResolveConfig(path string) (*config.ResolvedConfig, error) {
	doc, err := p.loader.Load(path, "")
	if err != nil {
		return nil, &errors.StageError{Stage: StageLoad, Err: err}
	}
	cfg, err := config.Parse(doc)
	if err != nil {
		return nil, &errors.StageError{Stage: StageLoad, Err: err}
	}
	rc, err := p.inherit.Resolve(cfg)
	if err != nil {
		return nil, &errors.StageError{Stage: StageInheritance, Err: err}
	}
	return rc, nil
}

// Run resolves the document at path and generates its records.
func (p *Pipeline) Run(path string, opts RunOptions) (*Result, error) {
	rc, ctx, err := p.Resolve(path, opts)
	if err != nil {
		return nil, err
	}
	records, err := p.generator.Generate(rc, ctx, rc.Strategy)
	if err != nil {
		return nil, &errors.StageError{Stage: StageGenerate, Err: err}
	}
	return &Result{Config: rc, Context: ctx, Records: records}, nil
}

// Validate checks the document at path phase by phase without generating.
func (p *Pipeline) Validate(path string, opts RunOptions) *validator.Report {
	v := validator.New(p.loader, p.logger)
	return v.Validate(path, binder{p: p, opts: opts})
}

type binder struct {
	p    *Pipeline
	opts RunOptions
}

func (b binder) Bind(rc *config.ResolvedConfig) (*config.ResolvedContext, error) {
	return b.p.bind(rc, b.opts)
}

func (p *Pipeline) bind(rc *config.ResolvedConfig, opts RunOptions) (*config.ResolvedContext, error) {
	chunks, err := p.inherit.ResolveChunks(rc)
	if err != nil {
		return nil, &errors.StageError{Stage: StageChunks, Err: err}
	}

	order := chunkOrder(rc, chunks)

	// The template's imports win over those its chunks declare.
	declared := append([]config.Import(nil), rc.Imports...)
	for _, name := range order {
		for _, imp := range chunks[name].Imports {
			if !hasImport(declared, imp.Placeholder) {
				declared = append(declared, imp)
			}
		}
	}

	declared, err = p.applyTheme(rc, declared, opts)
	if err != nil {
		return nil, &errors.StageError{Stage: StageTheme, Err: err}
	}

	sets, err := p.imports.Resolve(declared)
	if err != nil {
		return nil, &errors.StageError{Stage: StageImports, Err: err}
	}

	// Chunk fields fill placeholders no import binds.
	for _, chunk := range order {
		def := chunks[chunk]
		names := make([]string, 0, len(def.Fields))
		for name := range def.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := sets[name]; ok {
				continue
			}
			set := config.NewVariationSet()
			text := def.Fields[name]
			_ = set.Add(config.VariationEntry{Key: config.InlineKey(text), Text: text, Weight: 1, Source: "chunk:" + def.Name})
			sets[name] = set
		}
	}

	params := maps.Clone(rc.Parameters)
	if params == nil {
		params = make(map[string]interface{})
	}
	ctx := &config.ResolvedContext{
		Imports:    sets,
		Chunks:     chunks,
		Parameters: params,
	}
	ctx.Notices = template.Notices(rc, ctx)
	return ctx, nil
}

func (p *Pipeline) applyTheme(rc *config.ResolvedConfig, declared []config.Import, opts RunOptions) ([]config.Import, error) {
	if opts.Theme == "" && opts.Style == "" {
		return declared, nil
	}

	var th *theme.Descriptor
	if opts.Theme != "" {
		var err error
		th, err = p.themes.Find(rc.Themes, p.themeRoots, opts.Theme)
		if err != nil {
			return nil, err
		}
		p.logger.Infof("Applying theme %s (%s)", th.Name, th.Source)
	}

	known := append([]string(nil), p.knownStyles...)
	var fallback []string
	if rc.Themes != nil {
		known = append(known, rc.Themes.Styles...)
		for _, dir := range rc.Themes.FallbackDirs {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(rc.Themes.BaseDir, dir)
			}
			fallback = append(fallback, dir)
		}
	}
	if th != nil {
		known = append(known, th.Styles...)
	}
	fallback = append(fallback, p.fallbackDirs...)

	return theme.Overlay(declared, th, opts.Style, known, fallback)
}

// chunkOrder returns the chunks declared by rc in declaration order,
// followed by the chunks declared inside chunk documents, sorted.
func chunkOrder(rc *config.ResolvedConfig, chunks map[string]*config.ChunkDefinition) []string {
	order := make([]string, 0, len(chunks))
	seen := make(map[string]bool, len(chunks))
	for _, ref := range rc.Chunks {
		if _, ok := chunks[ref.Name]; ok && !seen[ref.Name] {
			order = append(order, ref.Name)
			seen[ref.Name] = true
		}
	}
	var nested []string
	for name := range chunks {
		if !seen[name] {
			nested = append(nested, name)
		}
	}
	sort.Strings(nested)
	return append(order, nested...)
}

// withOverrides returns a copy of rc with the strategy overrides applied.
func withOverrides(rc *config.ResolvedConfig, opts RunOptions) *config.ResolvedConfig {
	out := *rc
	if opts.Mode != "" {
		out.Strategy.Mode = opts.Mode
	}
	if opts.SeedMode != "" {
		out.Strategy.SeedMode = opts.SeedMode
	}
	if opts.Seed != nil {
		out.Strategy.Seed = *opts.Seed
	}
	if opts.MaxImages != nil {
		out.Strategy.MaxImages = *opts.MaxImages
	}
	return &out
}

func hasImport(list []config.Import, placeholder string) bool {
	for _, imp := range list {
		if imp.Placeholder == placeholder {
			return true
		}
	}
	return false
}
