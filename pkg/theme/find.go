package theme

import (
	"path/filepath"
	"sort"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Roots returns the absolute theme search directories of settings followed
// by extra. Relative search paths are taken from the declaring template's
// directory.
func Roots(settings *config.ThemeSettings, extra []string) []string {
	var roots []string
	if settings != nil {
		for _, p := range settings.SearchPaths {
			if !filepath.IsAbs(p) {
				p = filepath.Join(settings.BaseDir, p)
			}
			roots = append(roots, p)
		}
	}
	return append(roots, extra...)
}

// Available lists every theme reachable from settings and extra roots,
// explicit entries first. Missing search directories are skipped.
func (r *Resolver) Available(settings *config.ThemeSettings, extra []string) ([]*Descriptor, error) {
	var out []*Descriptor
	seen := make(map[string]bool)

	if settings != nil {
		names := make([]string, 0, len(settings.Explicit))
		for name := range settings.Explicit {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			d, err := r.LoadDescriptor(settings.Explicit[name], settings.BaseDir)
			if err != nil {
				return nil, errors.Wrapf(err, "theme %q", name)
			}
			d.Name = name
			seen[name] = true
			out = append(out, d)
		}
	}

	for _, root := range Roots(settings, extra) {
		found, err := r.Discover(root)
		if err != nil {
			var nf *errors.NotFoundError
			if errors.As(err, &nf) {
				r.logger.Debugf("theme: search path %s does not exist", root)
				continue
			}
			return nil, err
		}
		for _, d := range found {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// Find returns the theme called name.
func (r *Resolver) Find(settings *config.ThemeSettings, extra []string, name string) (*Descriptor, error) {
	if settings != nil {
		if path, ok := settings.Explicit[name]; ok {
			d, err := r.LoadDescriptor(path, settings.BaseDir)
			if err != nil {
				return nil, errors.Wrapf(err, "theme %q", name)
			}
			d.Name = name
			return d, nil
		}
	}

	all, err := r.Available(settings, extra)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, d := range all {
		if d.Name == name {
			return d, nil
		}
		names = append(names, d.Name)
	}

	err = errors.Newf("theme %q not found", name)
	if matches := fuzzy.RankFindFold(name, names); len(matches) > 0 {
		sort.Sort(matches)
		err = errors.WithHintf(err, "did you mean %q?", matches[0].Target)
	} else if len(names) > 0 {
		err = errors.WithHintf(err, "available themes: %v", names)
	}
	return nil, err
}
