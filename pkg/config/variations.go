package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/loader"
	"gopkg.in/yaml.v3"
)

// MetadataKeys are stripped from variations documents.
var MetadataKeys = []string{"type", "name", "version", "description"}

// VariationEntry is one selectable value of a placeholder.
type VariationEntry struct {
	Key    string
	Text   string
	Weight float64 // defaults to 1, carried but not used for ordering

	// Fields holds the parts of a multi-part value, in FieldOrder.
	Fields     map[string]string
	FieldOrder []string

	Source string // file or inline origin of the entry
}

// Field returns the named part of a multi-part entry.
func (e VariationEntry) Field(name string) (string, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// VariationSet is an insertion-ordered mapping from key to entry.
type VariationSet struct {
	keys    []string
	entries map[string]VariationEntry
}

// NewVariationSet creates an empty set.
func NewVariationSet() *VariationSet {
	return &VariationSet{entries: make(map[string]VariationEntry)}
}

// Add appends an entry. A key that is already present is a merge conflict.
func (s *VariationSet) Add(e VariationEntry) error {
	if prev, ok := s.entries[e.Key]; ok {
		return &errors.MergeConflictError{Key: e.Key, FirstSource: prev.Source, SecondSource: e.Source}
	}
	s.keys = append(s.keys, e.Key)
	s.entries[e.Key] = e
	return nil
}

// Merge appends every entry of other in order, failing on the first key
// already present.
func (s *VariationSet) Merge(other *VariationSet) error {
	for _, e := range other.Entries() {
		if err := s.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of entries.
func (s *VariationSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in insertion order.
func (s *VariationSet) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Get returns the entry stored under key.
func (s *VariationSet) Get(key string) (VariationEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// At returns the entry at ordinal position i.
func (s *VariationSet) At(i int) VariationEntry {
	return s.entries[s.keys[i]]
}

// Entries returns all entries in insertion order.
func (s *VariationSet) Entries() []VariationEntry {
	out := make([]VariationEntry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entries[k])
	}
	return out
}

// Texts returns key -> text, mostly useful in tests and reports.
func (s *VariationSet) Texts() map[string]string {
	out := make(map[string]string, len(s.keys))
	for _, k := range s.keys {
		out[k] = s.entries[k].Text
	}
	return out
}

// ParseVariations extracts the variation set of a variations document.
//
// A document with a `variations` key yields exactly that sub-map. A
// document typed `variations` without the sub-map yields its non-metadata
// keys. Any other document is taken as a flat mapping, unchanged.
func ParseVariations(doc *loader.Document) (*VariationSet, error) {
	if n := doc.Lookup("variations"); n != nil {
		return decodeVariationNode(n, doc.Path)
	}

	if doc.Type() == string(KindVariations) {
		stripped := &yaml.Node{Kind: yaml.MappingNode, Line: doc.Root.Line}
		for i := 0; i+1 < len(doc.Root.Content); i += 2 {
			if isMetadataKey(doc.Root.Content[i].Value) {
				continue
			}
			stripped.Content = append(stripped.Content, doc.Root.Content[i], doc.Root.Content[i+1])
		}
		return decodeVariationNode(stripped, doc.Path)
	}

	if t := doc.Type(); t != "" {
		return nil, &errors.ParseError{Path: doc.Path, Reason: fmt.Sprintf("expected a variations document, found type %q", t)}
	}
	return decodeVariationNode(doc.Root, doc.Path)
}

func isMetadataKey(key string) bool {
	for _, k := range MetadataKeys {
		if k == key {
			return true
		}
	}
	return false
}

func decodeVariationNode(node *yaml.Node, source string) (*VariationSet, error) {
	set := NewVariationSet()
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			entry, err := decodeEntry(key, node.Content[i+1], source)
			if err != nil {
				return nil, err
			}
			if err := set.Add(entry); err != nil {
				return nil, &errors.ParseError{Path: source, Line: node.Content[i].Line, Err: err}
			}
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, &errors.ParseError{Path: source, Line: item.Line, Reason: "variation list items must be scalars"}
			}
			if err := set.Add(VariationEntry{Key: InlineKey(item.Value), Text: item.Value, Weight: 1, Source: source}); err != nil {
				return nil, &errors.ParseError{Path: source, Line: item.Line, Err: err}
			}
		}
	default:
		return nil, &errors.ParseError{Path: source, Line: node.Line, Reason: "variations must be a mapping or a list"}
	}
	return set, nil
}

func decodeEntry(key string, value *yaml.Node, source string) (VariationEntry, error) {
	entry := VariationEntry{Key: key, Weight: 1, Source: source}
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag != "!!null" {
			entry.Text = value.Value
		}
	case yaml.MappingNode:
		entry.Fields = make(map[string]string)
		var parts []string
		for i := 0; i+1 < len(value.Content); i += 2 {
			k, v := value.Content[i].Value, value.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return entry, &errors.ParseError{Path: source, Line: v.Line, Reason: fmt.Sprintf("field %q of variation %q must be a scalar", k, key)}
			}
			switch k {
			case "text", "value":
				entry.Text = v.Value
			case "weight":
				w, err := strconv.ParseFloat(v.Value, 64)
				if err != nil || w < 0 {
					return entry, &errors.ParseError{Path: source, Line: v.Line, Reason: fmt.Sprintf("invalid weight %q for variation %q", v.Value, key)}
				}
				entry.Weight = w
			default:
				entry.Fields[k] = v.Value
				entry.FieldOrder = append(entry.FieldOrder, k)
				parts = append(parts, v.Value)
			}
		}
		if entry.Text == "" {
			entry.Text = strings.Join(parts, ", ")
		}
	default:
		return entry, &errors.ParseError{Path: source, Line: value.Line, Reason: fmt.Sprintf("variation %q must be a string or a mapping of fields", key)}
	}
	return entry, nil
}

// InlineKey synthesizes a stable key for a literal value.
func InlineKey(text string) string {
	return fmt.Sprintf("inline_%016x", xxhash.Sum64String(text))
}
