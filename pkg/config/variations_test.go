package config

import (
	"testing"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariations_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "flat mapping",
			content: "short: short hair\nlong: long hair\n",
			want:    []string{"short", "long"},
		},
		{
			name:    "typed document strips metadata",
			content: "type: variations\nname: hair\nversion: \"1.0\"\ndescription: hair styles\nshort: short hair\n",
			want:    []string{"short"},
		},
		{
			name:    "variations sub-map",
			content: "type: variations\nname: hair\nvariations:\n  bob: bob cut\n  bun: hair bun\n",
			want:    []string{"bob", "bun"},
		},
		{
			name:    "untyped document keeps name keys",
			content: "name: a person named Ann\nshort: short hair\n",
			want:    []string{"name", "short"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseVariations(parseDoc(t, "hair.yaml", tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Keys())
		})
	}
}

func TestParseVariations_Entries(t *testing.T) {
	set, err := ParseVariations(parseDoc(t, "outfit.yaml", `
plain: red dress
weighted:
  text: blue suit
  weight: 2.5
parts:
  top: white shirt
  bottom: jeans
empty:
`))
	require.NoError(t, err)

	e, _ := set.Get("plain")
	assert.Equal(t, "red dress", e.Text)
	assert.Equal(t, 1.0, e.Weight)
	assert.Equal(t, "/work/outfit.yaml", e.Source)

	e, _ = set.Get("weighted")
	assert.Equal(t, "blue suit", e.Text)
	assert.Equal(t, 2.5, e.Weight)

	e, _ = set.Get("parts")
	assert.Equal(t, "white shirt, jeans", e.Text)
	assert.Equal(t, []string{"top", "bottom"}, e.FieldOrder)
	top, ok := e.Field("top")
	assert.True(t, ok)
	assert.Equal(t, "white shirt", top)

	e, _ = set.Get("empty")
	assert.Equal(t, "", e.Text)
}

func TestParseVariations_Errors(t *testing.T) {
	_, err := ParseVariations(parseDoc(t, "t.yaml", "type: template\ntemplate: x\n"))
	var pe *errors.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = ParseVariations(parseDoc(t, "v.yaml", "a:\n  weight: heavy\n"))
	assert.True(t, errors.As(err, &pe))

	_, err = ParseVariations(parseDoc(t, "v.yaml", "a: [1, 2]\n"))
	assert.True(t, errors.As(err, &pe))
}

func TestVariationSet_MergeConflict(t *testing.T) {
	a := NewVariationSet()
	require.NoError(t, a.Add(VariationEntry{Key: "x", Text: "one", Source: "a.yaml"}))
	b := NewVariationSet()
	require.NoError(t, b.Add(VariationEntry{Key: "y", Text: "two", Source: "b.yaml"}))
	require.NoError(t, b.Add(VariationEntry{Key: "x", Text: "three", Source: "b.yaml"}))

	err := a.Merge(b)
	var mc *errors.MergeConflictError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "x", mc.Key)
	assert.Equal(t, "a.yaml", mc.FirstSource)
	assert.Equal(t, "b.yaml", mc.SecondSource)
}

func TestInlineKey_Stable(t *testing.T) {
	assert.Equal(t, InlineKey("smiling"), InlineKey("smiling"))
	assert.NotEqual(t, InlineKey("smiling"), InlineKey("frowning"))
	assert.Regexp(t, `^inline_[0-9a-f]{16}$`, InlineKey("smiling"))
}
