package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grovetools/promptgen/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ImportKind discriminates the Import union.
type ImportKind int

const (
	ImportSingleFile ImportKind = iota
	ImportMultiFile
	ImportInline
	ImportThemeRef
)

func (k ImportKind) String() string {
	switch k {
	case ImportSingleFile:
		return "file"
	case ImportMultiFile:
		return "multi-file"
	case ImportInline:
		return "inline"
	case ImportThemeRef:
		return "theme-ref"
	default:
		return fmt.Sprintf("ImportKind(%d)", int(k))
	}
}

// MergeStrategy controls how the sources of a multi-file import combine.
type MergeStrategy string

const (
	// MergeCombine concatenates sources left to right and rejects duplicate keys.
	MergeCombine MergeStrategy = "combine"
)

// InlineValue is a literal variation declared inside a template.
type InlineValue struct {
	Key  string // explicit key, empty when synthesized
	Text string
}

// Import is one declared import. Exactly one variant is active, selected by
// Kind:
//
//	ImportSingleFile: Path
//	ImportMultiFile:  Sources (+ Values appended after the files), Strategy
//	ImportInline:     Values
//	ImportThemeRef:   ThemeName (placeholder in the theme), Style
type Import struct {
	Placeholder string
	Kind        ImportKind

	Path     string
	Sources  []string
	Strategy MergeStrategy
	Values   []InlineValue

	ThemeName string
	Style     string

	// BaseDir is the directory of the declaring document; paths are
	// relative to it.
	BaseDir    string
	DeclaredIn string

	// Dropped counts non-string literals filtered out at parse time.
	Dropped int
}

// Files returns every file path the import reads, in order.
func (i Import) Files() []string {
	switch i.Kind {
	case ImportSingleFile:
		return []string{i.Path}
	case ImportMultiFile:
		return append([]string(nil), i.Sources...)
	default:
		return nil
	}
}

// IsVariationPath reports whether s names a YAML file rather than a literal.
func IsVariationPath(s string) bool {
	ext := strings.ToLower(filepath.Ext(s))
	return ext == ".yaml" || ext == ".yml"
}

// parseImports decodes the `imports` mapping of a document, keeping
// declaration order.
func parseImports(node *yaml.Node, baseDir, source string) ([]Import, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &errors.ParseError{Path: source, Line: node.Line, Reason: "imports must be a mapping"}
	}

	var out []Import
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		imp, err := parseImport(name, node.Content[i+1], baseDir, source)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, nil
}

func parseImport(name string, value *yaml.Node, baseDir, source string) (Import, error) {
	imp := Import{Placeholder: name, BaseDir: baseDir, DeclaredIn: source}

	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag != "!!str" || strings.TrimSpace(value.Value) == "" {
			return imp, &errors.FormatError{Placeholder: name, Source: source, Reason: "expected a file path, a list or a mapping"}
		}
		imp.Kind = ImportSingleFile
		imp.Path = value.Value
		return imp, nil

	case yaml.SequenceNode:
		return parseImportList(imp, value)

	case yaml.MappingNode:
		return parseImportMapping(imp, value)
	}

	return imp, &errors.FormatError{Placeholder: name, Source: source, Reason: "expected a file path, a list or a mapping"}
}

// parseImportList handles the list form: YAML paths become sources, string
// literals become inline values, anything else is dropped.
func parseImportList(imp Import, value *yaml.Node) (Import, error) {
	for _, item := range value.Content {
		if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
			imp.Dropped++
			continue
		}
		if IsVariationPath(item.Value) {
			imp.Sources = append(imp.Sources, item.Value)
			continue
		}
		imp.Values = append(imp.Values, InlineValue{Text: item.Value})
	}

	switch {
	case len(imp.Sources) > 0:
		imp.Kind = ImportMultiFile
		imp.Strategy = MergeCombine
		if len(imp.Sources) == 1 && len(imp.Values) == 0 {
			imp.Kind = ImportSingleFile
			imp.Path = imp.Sources[0]
			imp.Sources = nil
			imp.Strategy = ""
		}
	case len(imp.Values) > 0:
		imp.Kind = ImportInline
	default:
		return imp, &errors.FormatError{Placeholder: imp.Placeholder, Source: imp.DeclaredIn, Reason: "list contains no file paths or string values"}
	}
	return imp, nil
}

func parseImportMapping(imp Import, value *yaml.Node) (Import, error) {
	fields := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(value.Content); i += 2 {
		fields[value.Content[i].Value] = value.Content[i+1]
	}
	fail := func(reason string) (Import, error) {
		return imp, &errors.FormatError{Placeholder: imp.Placeholder, Source: imp.DeclaredIn, Reason: reason}
	}

	switch {
	case fields["sources"] != nil:
		src := fields["sources"]
		if src.Kind != yaml.SequenceNode || len(src.Content) == 0 {
			return fail("sources must be a non-empty list of file paths")
		}
		for _, item := range src.Content {
			if item.Kind != yaml.ScalarNode || !IsVariationPath(item.Value) {
				return fail(fmt.Sprintf("source %q is not a YAML file path", item.Value))
			}
			imp.Sources = append(imp.Sources, item.Value)
		}
		imp.Kind = ImportMultiFile
		imp.Strategy = MergeCombine
		if s := fields["merge_strategy"]; s != nil {
			imp.Strategy = MergeStrategy(s.Value)
		}
		if imp.Strategy != MergeCombine {
			return fail(fmt.Sprintf("unknown merge_strategy %q", imp.Strategy))
		}
		return imp, nil

	case fields["theme"] != nil:
		imp.Kind = ImportThemeRef
		imp.ThemeName = fields["theme"].Value
		if imp.ThemeName == "" {
			imp.ThemeName = imp.Placeholder
		}
		if s := fields["style"]; s != nil {
			imp.Style = s.Value
		}
		return imp, nil

	case fields["values"] != nil:
		vals := fields["values"]
		imp.Kind = ImportInline
		switch vals.Kind {
		case yaml.SequenceNode:
			for _, item := range vals.Content {
				if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
					imp.Dropped++
					continue
				}
				imp.Values = append(imp.Values, InlineValue{Text: item.Value})
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(vals.Content); i += 2 {
				v := vals.Content[i+1]
				if v.Kind != yaml.ScalarNode || v.Tag != "!!str" {
					imp.Dropped++
					continue
				}
				imp.Values = append(imp.Values, InlineValue{Key: vals.Content[i].Value, Text: v.Value})
			}
		default:
			return fail("values must be a list or a mapping of strings")
		}
		if len(imp.Values) == 0 {
			return fail("values contains no string literals")
		}
		return imp, nil
	}

	return fail("mapping must declare sources, theme or values")
}
