package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/loader"
	"gopkg.in/yaml.v3"
)

// Kind is the value of a document's `type` field.
type Kind string

const (
	KindTemplate   Kind = "template"
	KindChunk      Kind = "chunk"
	KindPrompt     Kind = "prompt"
	KindVariations Kind = "variations"
	KindTheme      Kind = "theme"
)

// SupportedFormat constrains the `version` field of documents.
const SupportedFormat = ">= 1.0, < 3.0"

// Config is a template, chunk or prompt document as written, before
// inheritance is resolved.
type Config struct {
	Kind        Kind   `yaml:"type" json:"type" jsonschema:"enum=template,enum=chunk,enum=prompt"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Implements  string `yaml:"implements,omitempty" json:"implements,omitempty"` // parent document, relative path

	Template       string `yaml:"template,omitempty" json:"template,omitempty"`
	Prompt         string `yaml:"prompt,omitempty" json:"prompt,omitempty"` // injected at the parent's {prompt} slot
	NegativePrompt string `yaml:"negative_prompt,omitempty" json:"negative_prompt,omitempty"`

	Parameters map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Generation *GenerationSpec        `yaml:"generation,omitempty" json:"generation,omitempty"`
	Themes     *ThemeSettings         `yaml:"themes,omitempty" json:"themes,omitempty"`
	Defaults   map[string]string      `yaml:"defaults,omitempty" json:"defaults,omitempty"` // chunk field defaults

	Chunks  []ChunkRef `yaml:"-" json:"-"`
	Imports []Import   `yaml:"-" json:"-"`

	SourcePath string `yaml:"-" json:"-"`
}

// Dir returns the directory of the source document.
func (c *Config) Dir() string {
	return filepath.Dir(c.SourcePath)
}

// ChunkRef is a chunk declared by a template: either a file or an inline
// definition, plus field overrides.
type ChunkRef struct {
	Name     string
	Path     string // empty for inline chunks
	Template string // inline chunks only
	Fields   map[string]string

	BaseDir    string
	DeclaredIn string
}

// GenerationSpec is the `generation` block. Nil fields are inherited.
type GenerationSpec struct {
	Mode      *string `yaml:"mode,omitempty" json:"mode,omitempty" jsonschema:"enum=combinatorial,enum=random"`
	SeedMode  *string `yaml:"seed_mode,omitempty" json:"seed_mode,omitempty" jsonschema:"enum=fixed,enum=progressive,enum=random"`
	Seed      *int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
	MaxImages *int    `yaml:"max_images,omitempty" json:"max_images,omitempty"`
}

// ThemeSettings is the `themes` block of a template.
type ThemeSettings struct {
	SearchPaths  []string          `yaml:"search_paths,omitempty" json:"search_paths,omitempty"`
	Explicit     map[string]string `yaml:"explicit,omitempty" json:"explicit,omitempty"`
	Styles       []string          `yaml:"styles,omitempty" json:"styles,omitempty"`
	FallbackDirs []string          `yaml:"fallback_dirs,omitempty" json:"fallback_dirs,omitempty"`

	BaseDir string `yaml:"-" json:"-"`
}

// ThemeConfig is a theme descriptor document.
type ThemeConfig struct {
	Kind        Kind     `yaml:"type" json:"type" jsonschema:"enum=theme"`
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Version     string   `yaml:"version,omitempty" json:"version,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Styles      []string `yaml:"styles,omitempty" json:"styles,omitempty"`

	Imports []Import `yaml:"-" json:"-"`

	SourcePath string `yaml:"-" json:"-"`
}

// Detect returns the kind of a document. Documents without a `type` field
// are flat variation files.
func Detect(doc *loader.Document) (Kind, error) {
	t := doc.Type()
	switch Kind(t) {
	case KindTemplate, KindChunk, KindPrompt, KindVariations, KindTheme:
		return Kind(t), nil
	case "":
		return KindVariations, nil
	}
	return "", &errors.ParseError{Path: doc.Path, Reason: fmt.Sprintf("unknown document type %q", t)}
}

// Parse decodes a template, chunk or prompt document without checking its
// kind against an expectation.
func Parse(doc *loader.Document) (*Config, error) {
	kind, err := Detect(doc)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindTemplate:
		return ParseTemplate(doc)
	case KindChunk:
		return ParseChunk(doc)
	case KindPrompt:
		return ParsePrompt(doc)
	}
	return nil, &errors.ParseError{Path: doc.Path, Reason: fmt.Sprintf("expected a template, chunk or prompt document, found %s", kind)}
}

// ParseTemplate decodes a template document.
func ParseTemplate(doc *loader.Document) (*Config, error) {
	cfg, err := decodeConfig(doc, KindTemplate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Template) == "" && cfg.Implements == "" {
		return nil, requiredField(doc, "template")
	}
	return cfg, nil
}

// ParseChunk decodes a chunk document.
func ParseChunk(doc *loader.Document) (*Config, error) {
	cfg, err := decodeConfig(doc, KindChunk)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Template) == "" && cfg.Implements == "" {
		return nil, requiredField(doc, "template")
	}
	return cfg, nil
}

// ParsePrompt decodes a prompt document.
func ParsePrompt(doc *loader.Document) (*Config, error) {
	cfg, err := decodeConfig(doc, KindPrompt)
	if err != nil {
		return nil, err
	}
	if cfg.Implements == "" {
		return nil, requiredField(doc, "implements")
	}
	return cfg, nil
}

// ParseTheme decodes a theme descriptor.
func ParseTheme(doc *loader.Document) (*ThemeConfig, error) {
	if err := expectKind(doc, KindTheme); err != nil {
		return nil, err
	}
	var th ThemeConfig
	if err := doc.Decode(&th); err != nil {
		return nil, err
	}
	if err := CheckVersion(th.Version); err != nil {
		return nil, &errors.ParseError{Path: doc.Path, Err: err}
	}
	imports, err := parseImports(doc.Lookup("imports"), doc.Dir, doc.Path)
	if err != nil {
		return nil, err
	}
	if th.Name == "" && len(imports) == 0 {
		return nil, requiredField(doc, "name or imports")
	}
	if th.Name == "" {
		th.Name = filepath.Base(doc.Dir)
	}
	th.Imports = imports
	th.SourcePath = doc.Path
	return &th, nil
}

// CheckVersion validates a document format version against SupportedFormat.
// An empty version is accepted.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(err, "invalid version %q", version)
	}
	constraint, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		return errors.Wrapf(err, "invalid format constraint %s", SupportedFormat)
	}
	if !constraint.Check(v) {
		return errors.Newf("format version %s is not supported (want %s)", version, SupportedFormat)
	}
	return nil
}

// MajorVersion returns the major component of version, or -1 when it is
// absent or malformed.
func MajorVersion(version string) int {
	v, err := semver.NewVersion(version)
	if err != nil {
		return -1
	}
	return int(v.Major())
}

func decodeConfig(doc *loader.Document, want Kind) (*Config, error) {
	if err := expectKind(doc, want); err != nil {
		return nil, err
	}

	var cfg Config
	if err := doc.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := CheckVersion(cfg.Version); err != nil {
		return nil, &errors.ParseError{Path: doc.Path, Err: err}
	}
	if cfg.Name == "" {
		cfg.Name = baseName(doc.Path)
	}
	cfg.SourcePath = doc.Path
	if cfg.Themes != nil {
		cfg.Themes.BaseDir = doc.Dir
	}

	imports, err := parseImports(doc.Lookup("imports"), doc.Dir, doc.Path)
	if err != nil {
		return nil, err
	}
	cfg.Imports = imports

	chunks, err := parseChunkRefs(doc.Lookup("chunks"), doc.Dir, doc.Path)
	if err != nil {
		return nil, err
	}
	cfg.Chunks = chunks

	return &cfg, nil
}

func expectKind(doc *loader.Document, want Kind) error {
	got := doc.Type()
	if got == "" {
		return requiredField(doc, "type")
	}
	if Kind(got) != want {
		return &errors.ParseError{Path: doc.Path, Reason: fmt.Sprintf("expected type %q, found %q", want, got)}
	}
	return nil
}

func requiredField(doc *loader.Document, field string) error {
	return &errors.ParseError{Path: doc.Path, Reason: fmt.Sprintf("missing required field %q", field)}
}

func parseChunkRefs(node *yaml.Node, baseDir, source string) ([]ChunkRef, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &errors.ParseError{Path: source, Line: node.Line, Reason: "chunks must be a mapping"}
	}

	var out []ChunkRef
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i].Value, node.Content[i+1]
		ref := ChunkRef{Name: name, BaseDir: baseDir, DeclaredIn: source}

		switch value.Kind {
		case yaml.ScalarNode:
			ref.Path = value.Value
		case yaml.MappingNode:
			var body struct {
				Path     string            `yaml:"path"`
				Template string            `yaml:"template"`
				Fields   map[string]string `yaml:"fields"`
			}
			if err := value.Decode(&body); err != nil {
				return nil, &errors.ParseError{Path: source, Line: value.Line, Err: err}
			}
			if (body.Path == "") == (body.Template == "") {
				return nil, &errors.ParseError{Path: source, Line: value.Line, Reason: fmt.Sprintf("chunk %q must set exactly one of path or template", name)}
			}
			ref.Path, ref.Template, ref.Fields = body.Path, body.Template, body.Fields
		default:
			return nil, &errors.ParseError{Path: source, Line: value.Line, Reason: fmt.Sprintf("chunk %q must be a path or a mapping", name)}
		}
		out = append(out, ref)
	}
	return out, nil
}

// baseName strips directories and every extension: "a/b.template.yaml" -> "b".
func baseName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
