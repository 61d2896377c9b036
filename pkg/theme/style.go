package theme

import (
	"path/filepath"
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
)

// SplitStyle splits a file name into its stem, its style tag (when the last
// dotted component before the extension is one of known) and its extension:
// "hair.sfw.yaml" -> ("hair", "sfw", ".yaml").
func SplitStyle(name string, known []string) (stem, style, ext string) {
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		tag := stem[i+1:]
		for _, k := range known {
			if k == tag {
				return stem[:i], tag, ext
			}
		}
	}
	return stem, "", ext
}

// ApplyStyle returns the variant of path for target style. The lookup order
// is: the rewritten file next to path; a file of the same name in each
// fallback directory; the style-stripped base file. When none exists, path
// is returned unchanged with ok=false.
func ApplyStyle(path, target string, known, fallbackDirs []string) (string, bool) {
	if target == "" {
		return path, true
	}
	dir := filepath.Dir(path)
	tags := append(append([]string(nil), known...), target)
	stem, _, ext := SplitStyle(filepath.Base(path), tags)

	styled := stem + "." + target + ext
	if candidate := filepath.Join(dir, styled); fileExists(candidate) {
		return candidate, true
	}
	for _, fb := range fallbackDirs {
		if candidate := filepath.Join(fb, styled); fileExists(candidate) {
			return candidate, true
		}
	}
	if candidate := filepath.Join(dir, stem+ext); fileExists(candidate) {
		return candidate, true
	}
	return path, false
}

// Overlay returns a new import list with theme applied. Imports of the
// theme replace same-named imports and are appended when the template does
// not declare them; theme references are bound to the theme entry they
// name. When style is set every file import is rewritten to that style,
// falling back through fallbackDirs. theme may be nil to apply a style
// only. The input slice is not modified.
func Overlay(imports []config.Import, theme *Descriptor, style string, known, fallbackDirs []string) ([]config.Import, error) {
	out := make([]config.Import, 0, len(imports))
	seen := make(map[string]bool)

	for _, imp := range imports {
		seen[imp.Placeholder] = true
		if theme == nil {
			out = append(out, imp)
			continue
		}
		lookup := imp.Placeholder
		if imp.Kind == config.ImportThemeRef {
			lookup = imp.ThemeName
		}
		bound, ok := theme.Import(lookup)
		if !ok {
			out = append(out, imp)
			continue
		}
		bound.Placeholder = imp.Placeholder
		if imp.Kind == config.ImportThemeRef {
			bound.Style = imp.Style
		}
		out = append(out, bound)
	}
	if theme != nil {
		for _, imp := range theme.Imports {
			if !seen[imp.Placeholder] {
				out = append(out, imp)
			}
		}
	}

	for i, imp := range out {
		want := style
		if imp.Style != "" && imp.Kind != config.ImportThemeRef {
			want = imp.Style
		}
		if want == "" {
			continue
		}
		styled, err := styleImport(imp, want, known, fallbackDirs)
		if err != nil {
			return nil, err
		}
		out[i] = styled
	}
	return out, nil
}

func styleImport(imp config.Import, style string, known, fallbackDirs []string) (config.Import, error) {
	rewrite := func(rel string) (string, error) {
		full := filepath.Join(imp.BaseDir, rel)
		styled, ok := ApplyStyle(full, style, known, fallbackDirs)
		if !ok {
			return "", &errors.MissingStyleError{Placeholder: imp.Placeholder, Path: full, Style: style}
		}
		if styled == full {
			return rel, nil
		}
		out, err := filepath.Rel(imp.BaseDir, styled)
		if err != nil {
			return "", errors.Wrapf(err, "failed to relativize %s", styled)
		}
		return out, nil
	}

	switch imp.Kind {
	case config.ImportSingleFile:
		p, err := rewrite(imp.Path)
		if err != nil {
			return imp, err
		}
		imp.Path = p
	case config.ImportMultiFile:
		sources := make([]string, len(imp.Sources))
		for i, src := range imp.Sources {
			p, err := rewrite(src)
			if err != nil {
				return imp, err
			}
			sources[i] = p
		}
		imp.Sources = sources
	}
	imp.Style = style
	return imp, nil
}
