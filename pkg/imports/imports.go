// Package imports binds declared imports to variation sets.
package imports

import (
	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/loader"
	"github.com/sirupsen/logrus"
)

// Resolver loads the variation sets behind imports.
type Resolver struct {
	loader *loader.Loader
	logger *logrus.Logger
}

// New creates a Resolver sharing l's document cache.
func New(l *loader.Loader, logger *logrus.Logger) *Resolver {
	return &Resolver{loader: l, logger: logger}
}

// Resolve returns one variation set per import, keyed by placeholder name.
// It stops at the first failing import.
func (r *Resolver) Resolve(imports []config.Import) (map[string]*config.VariationSet, error) {
	out := make(map[string]*config.VariationSet, len(imports))
	for _, imp := range imports {
		set, err := r.ResolveOne(imp)
		if err != nil {
			return nil, err
		}
		out[imp.Placeholder] = set
	}
	return out, nil
}

// ResolveOne builds the variation set of a single import.
func (r *Resolver) ResolveOne(imp config.Import) (*config.VariationSet, error) {
	switch imp.Kind {
	case config.ImportSingleFile:
		return r.loadFile(imp, imp.Path)

	case config.ImportMultiFile:
		if imp.Strategy != config.MergeCombine {
			return nil, &errors.FormatError{Placeholder: imp.Placeholder, Source: imp.DeclaredIn, Reason: "unknown merge_strategy " + string(imp.Strategy)}
		}
		merged := config.NewVariationSet()
		for _, src := range imp.Sources {
			set, err := r.loadFile(imp, src)
			if err != nil {
				return nil, err
			}
			if err := mergeInto(merged, set, imp.Placeholder); err != nil {
				return nil, err
			}
			r.logger.Debugf("imports: {%s} merged %d entries from %s", imp.Placeholder, set.Len(), src)
		}
		if len(imp.Values) > 0 {
			if err := mergeInto(merged, r.inline(imp), imp.Placeholder); err != nil {
				return nil, err
			}
		}
		return merged, nil

	case config.ImportInline:
		return r.inline(imp), nil

	case config.ImportThemeRef:
		return nil, errors.WithHint(
			&errors.FormatError{Placeholder: imp.Placeholder, Source: imp.DeclaredIn, Reason: "theme reference " + imp.ThemeName + " is not bound to any theme"},
			"select a theme that defines this placeholder",
		)
	}
	return nil, &errors.FormatError{Placeholder: imp.Placeholder, Source: imp.DeclaredIn, Reason: "unrecognized import kind " + imp.Kind.String()}
}

// Conflicts reports every merge conflict across the multi-file imports, not
// only the first. Load failures are reported as well.
func (r *Resolver) Conflicts(imports []config.Import) []error {
	var errs []error
	for _, imp := range imports {
		if imp.Kind != config.ImportMultiFile {
			continue
		}
		merged := config.NewVariationSet()
		for _, src := range imp.Sources {
			set, err := r.loadFile(imp, src)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, e := range set.Entries() {
				if err := merged.Add(e); err != nil {
					errs = append(errs, withPlaceholder(err, imp.Placeholder))
				}
			}
		}
	}
	return errs
}

func (r *Resolver) loadFile(imp config.Import, path string) (*config.VariationSet, error) {
	doc, err := r.loader.Load(path, imp.BaseDir)
	if err != nil {
		return nil, errors.Wrapf(err, "import {%s}", imp.Placeholder)
	}
	set, err := config.ParseVariations(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "import {%s}", imp.Placeholder)
	}
	return set, nil
}

// inline binds literal values. Repeated literals collapse to one entry.
func (r *Resolver) inline(imp config.Import) *config.VariationSet {
	if imp.Dropped > 0 {
		r.logger.Warnf("imports: {%s} in %s: dropped %d non-string value(s)", imp.Placeholder, imp.DeclaredIn, imp.Dropped)
	}
	set := config.NewVariationSet()
	source := "inline:" + imp.Placeholder
	for _, v := range imp.Values {
		key := v.Key
		if key == "" {
			key = config.InlineKey(v.Text)
		}
		if _, ok := set.Get(key); ok {
			r.logger.Debugf("imports: {%s} repeated literal %q ignored", imp.Placeholder, v.Text)
			continue
		}
		_ = set.Add(config.VariationEntry{Key: key, Text: v.Text, Weight: 1, Source: source})
	}
	return set
}

func mergeInto(dst, src *config.VariationSet, placeholder string) error {
	if err := dst.Merge(src); err != nil {
		return withPlaceholder(err, placeholder)
	}
	return nil
}

func withPlaceholder(err error, placeholder string) error {
	var mc *errors.MergeConflictError
	if errors.As(err, &mc) {
		named := *mc
		named.Placeholder = placeholder
		return &named
	}
	return err
}
