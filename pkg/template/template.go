// Package template expands chunks and binds placeholders in template text.
package template

import (
	"regexp"
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/selector"
)

var placeholderRe = regexp.MustCompile(`\{(@?[A-Za-z_][^{}]*)\}`)

// token is one placeholder occurrence in the expanded text.
type token struct {
	start, end int
	spec       selector.Spec
}

// Template is parsed template text with chunks injected.
type Template struct {
	text    string
	tokens  []token
	names   []string
	specs   map[string]selector.Spec
	missing []string // chunk names with no definition, as "@Name"
}

// Parse injects every {@Chunk} reference, recursively, and tokenizes the
// placeholders of the result. A chunk that refers back to itself through
// any path is an error; a chunk with no definition is kept and reported by
// Unresolved.
func Parse(text string, chunks map[string]*config.ChunkDefinition) (*Template, error) {
	t := &Template{specs: make(map[string]selector.Spec)}
	missing := make(map[string]bool)

	expanded, err := expand(text, chunks, nil, missing)
	if err != nil {
		return nil, err
	}
	t.text = expanded

	for _, m := range placeholderRe.FindAllStringSubmatchIndex(expanded, -1) {
		spec, err := selector.Parse(expanded[m[2]:m[3]])
		if err != nil {
			return nil, err
		}
		t.tokens = append(t.tokens, token{start: m[0], end: m[1], spec: spec})
		if spec.Chunk {
			name := "@" + spec.Name
			if missing[spec.Name] && !contains(t.missing, name) {
				t.missing = append(t.missing, name)
			}
			continue
		}
		if _, ok := t.specs[spec.Name]; !ok {
			t.specs[spec.Name] = spec
			t.names = append(t.names, spec.Name)
		}
	}
	return t, nil
}

func expand(text string, chunks map[string]*config.ChunkDefinition, stack []string, missing map[string]bool) (string, error) {
	var b strings.Builder
	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(text, -1) {
		inner := text[m[2]:m[3]]
		if !strings.HasPrefix(inner, "@") {
			continue
		}
		spec, err := selector.Parse(inner)
		if err != nil {
			return "", err
		}
		def, ok := chunks[spec.Name]
		if !ok {
			missing[spec.Name] = true
			continue
		}
		if contains(stack, spec.Name) {
			return "", errors.WithHint(
				errors.Newf("chunk cycle: %s -> %s", strings.Join(stack, " -> "), spec.Name),
				"a chunk may not inject itself, directly or through other chunks",
			)
		}
		body, err := expand(def.Template, chunks, append(stack, spec.Name), missing)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(body)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Text returns the template with chunks injected.
func (t *Template) Text() string { return t.text }

// Names returns the distinct variation placeholder names in order of first
// occurrence.
func (t *Template) Names() []string {
	return append([]string(nil), t.names...)
}

// Spec returns the selector of the first occurrence of name. Later
// occurrences render the same binding and do not select.
func (t *Template) Spec(name string) (selector.Spec, bool) {
	s, ok := t.specs[name]
	return s, ok
}

// Unresolved returns, in order of first occurrence, every placeholder with
// no non-empty variation set in imports, followed by missing chunks.
// Suppressed placeholders need no binding.
func (t *Template) Unresolved(imports map[string]*config.VariationSet) []string {
	var out []string
	for _, name := range t.names {
		if t.specs[name].Suppress {
			continue
		}
		if imports[name].Len() == 0 {
			out = append(out, name)
		}
	}
	return append(out, t.missing...)
}

// Conflicting returns the names used more than once with different
// annotations. Bare occurrences do not conflict.
func (t *Template) Conflicting() []string {
	first := make(map[string]string)
	var out []string
	for _, tok := range t.tokens {
		if tok.spec.Chunk {
			continue
		}
		ann := annotation(tok.spec)
		if ann == "" {
			continue
		}
		prev, ok := first[tok.spec.Name]
		if !ok {
			first[tok.spec.Name] = ann
			continue
		}
		if prev != ann && !contains(out, tok.spec.Name) {
			out = append(out, tok.spec.Name)
		}
	}
	return out
}

// annotation is the placeholder text after the name and field accessor.
func annotation(s selector.Spec) string {
	raw := strings.TrimSpace(s.Raw)
	prefix := s.Name
	if s.Field != "" {
		prefix += "." + s.Field
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, prefix))
}

// Follow makes lead's first occurrences govern the names t shares with
// it, so text rendered after lead in the same record agrees with it.
func (t *Template) Follow(lead *Template) {
	for name := range t.specs {
		if spec, ok := lead.specs[name]; ok {
			t.specs[name] = spec
		}
	}
}

// Render replaces every occurrence with the text of the entry bound to its
// name; a field accessor takes that field of the entry. Whether a name is
// suppressed is decided by its governing occurrence, so all occurrences of
// a name render alike. Names without a binding, suppressed names and
// missing chunks render as "".
func (t *Template) Render(binding map[string]config.VariationEntry) string {
	var b strings.Builder
	last := 0
	for _, tok := range t.tokens {
		b.WriteString(t.text[last:tok.start])
		last = tok.end
		if tok.spec.Chunk || t.specs[tok.spec.Name].Suppress {
			continue
		}
		e, ok := binding[tok.spec.Name]
		if !ok {
			continue
		}
		if tok.spec.Field != "" {
			v, _ := e.Field(tok.spec.Field)
			b.WriteString(v)
			continue
		}
		b.WriteString(e.Text)
	}
	b.WriteString(t.text[last:])
	return b.String()
}

// Resolve parses text against ctx's chunks and renders it with binding. It
// returns the rendered text and every unresolved name.
func Resolve(text string, ctx *config.ResolvedContext, binding map[string]config.VariationEntry) (string, []string, error) {
	t, err := Parse(text, ctx.Chunks)
	if err != nil {
		return "", nil, err
	}
	return t.Render(binding), t.Unresolved(ctx.Imports), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
