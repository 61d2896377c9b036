// Package schema generates JSON schemas for the document kinds.
package schema

import (
	"encoding/json"
	"sort"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/invopop/jsonschema"
)

// Kinds lists the document kinds with a schema, in a stable order.
var Kinds = []config.Kind{
	config.KindTemplate,
	config.KindPrompt,
	config.KindChunk,
	config.KindVariations,
	config.KindTheme,
}

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}
}

// For returns the schema of documents of kind.
func For(kind config.Kind) (*jsonschema.Schema, error) {
	r := reflector()
	var s *jsonschema.Schema

	switch kind {
	case config.KindTemplate, config.KindPrompt, config.KindChunk:
		s = r.Reflect(&config.Config{})
		s.Properties.Set("type", &jsonschema.Schema{Type: "string", Const: string(kind)})
		s.Properties.Set("imports", importsSchema())
		s.Properties.Set("chunks", chunksSchema())
		s.Required = []string{"type"}
	case config.KindTheme:
		s = r.Reflect(&config.ThemeConfig{})
		s.Properties.Set("imports", importsSchema())
		s.Required = []string{"type"}
	case config.KindVariations:
		s = variationsSchema()
	default:
		return nil, errors.Newf("no schema for document type %q", kind)
	}

	s.Title = "promptgen " + string(kind) + " document"
	s.Description = descriptions[kind]
	return s, nil
}

// JSON returns the indented schema of kind.
func JSON(kind config.Kind) ([]byte, error) {
	s, err := For(kind)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}
	return data, nil
}

var descriptions = map[config.Kind]string{
	config.KindTemplate:   "A prompt template with placeholders, chunks, imports and generation settings.",
	config.KindPrompt:     "Prompt text injected into the {prompt} slot of the template it implements.",
	config.KindChunk:      "A reusable fragment injected into templates with {@Name}.",
	config.KindVariations: "Named values for a placeholder.",
	config.KindTheme:      "A theme descriptor mapping placeholders to variation files.",
}

func stringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func importsSchema() *jsonschema.Schema {
	literal := stringSchema("a variation file path (.yaml) or a literal value")
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Placeholder name to import declaration.",
		AdditionalProperties: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				stringSchema("path of a variations file, relative to this document"),
				{Type: "array", Items: literal, MinItems: uint64Ptr(1)},
				objectWith("sources", "merge_strategy"),
				objectWith("theme", "style"),
				objectWith("values"),
			},
		},
	}
}

func chunksSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Chunk name to chunk file path or inline definition.",
		AdditionalProperties: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				stringSchema("path of a chunk document, relative to this document"),
				objectWith("path", "template", "fields"),
			},
		},
	}
}

func variationsSchema() *jsonschema.Schema {
	entry := &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "object", Description: "multi-part value; text/value and weight are reserved"},
		},
	}
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: entry,
	}
}

func objectWith(keys ...string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, k := range sorted {
		s.Properties.Set(k, &jsonschema.Schema{})
	}
	return s
}

func uint64Ptr(v uint64) *uint64 { return &v }
