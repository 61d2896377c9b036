package config

import (
	"sort"

	"github.com/grovetools/promptgen/pkg/errors"
)

// ResolvedConfig is a configuration with its inheritance chain folded in.
// It is built by the inheritance resolver and treated as read-only.
type ResolvedConfig struct {
	Kind       Kind
	Name       string
	SourcePath string
	Chain      []string // source paths, root ancestor first

	Template       string
	NegativePrompt string

	Chunks     []ChunkRef
	Imports    []Import
	Parameters map[string]interface{}
	Strategy   Strategy
	Themes     *ThemeSettings
	Defaults   map[string]string // chunk field defaults, chunks only
}

// Import returns the declared import for placeholder.
func (rc *ResolvedConfig) Import(placeholder string) (Import, bool) {
	for _, imp := range rc.Imports {
		if imp.Placeholder == placeholder {
			return imp, true
		}
	}
	return Import{}, false
}

// ChunkDefinition is a fragment injected with {@Name}.
type ChunkDefinition struct {
	Name       string
	Template   string
	Fields     map[string]string // defaults overlaid with the reference's overrides
	Imports    []Import
	SourcePath string
}

// ResolvedContext is everything the generator binds placeholders against.
// Built once per resolution; read-only afterwards.
type ResolvedContext struct {
	Imports    map[string]*VariationSet
	Chunks     map[string]*ChunkDefinition
	Parameters map[string]interface{}
	Notices    []string
}

// Available returns the sorted names of the bound imports.
func (c *ResolvedContext) Available() []string {
	names := make([]string, 0, len(c.Imports))
	for name := range c.Imports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mode is the enumeration strategy.
type Mode string

const (
	ModeCombinatorial Mode = "combinatorial"
	ModeRandom        Mode = "random"
)

// SeedMode controls per-record seeds.
type SeedMode string

const (
	SeedFixed       SeedMode = "fixed"
	SeedProgressive SeedMode = "progressive"
	SeedRandom      SeedMode = "random"
)

// Unlimited is the MaxImages sentinel for "emit every combination".
const Unlimited = -1

// Strategy is the effective generation strategy.
type Strategy struct {
	Mode      Mode
	SeedMode  SeedMode
	Seed      int64
	MaxImages int
}

// DefaultStrategy is used for fields no document sets.
func DefaultStrategy() Strategy {
	return Strategy{
		Mode:      ModeCombinatorial,
		SeedMode:  SeedProgressive,
		Seed:      0,
		MaxImages: Unlimited,
	}
}

// Limited reports whether MaxImages caps the output.
func (s Strategy) Limited() bool {
	return s.MaxImages > 0
}

// Validate checks the enumerated fields.
func (s Strategy) Validate() error {
	switch s.Mode {
	case ModeCombinatorial, ModeRandom:
	default:
		return errors.Newf("unknown generation mode %q", s.Mode)
	}
	switch s.SeedMode {
	case SeedFixed, SeedProgressive, SeedRandom:
	default:
		return errors.Newf("unknown seed mode %q", s.SeedMode)
	}
	if s.MaxImages < Unlimited {
		return errors.Newf("max_images must be -1 or non-negative, got %d", s.MaxImages)
	}
	return nil
}

// Apply overlays the non-nil fields of spec onto s.
func (s Strategy) Apply(spec *GenerationSpec) Strategy {
	if spec == nil {
		return s
	}
	if spec.Mode != nil {
		s.Mode = Mode(*spec.Mode)
	}
	if spec.SeedMode != nil {
		s.SeedMode = SeedMode(*spec.SeedMode)
	}
	if spec.Seed != nil {
		s.Seed = *spec.Seed
	}
	if spec.MaxImages != nil {
		s.MaxImages = *spec.MaxImages
	}
	return s
}
