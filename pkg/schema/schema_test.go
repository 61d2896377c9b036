package schema

import (
	"encoding/json"
	"testing"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_DocumentKinds(t *testing.T) {
	for _, kind := range []config.Kind{config.KindTemplate, config.KindPrompt, config.KindChunk} {
		t.Run(string(kind), func(t *testing.T) {
			s, err := For(kind)
			require.NoError(t, err)
			assert.Equal(t, "promptgen "+string(kind)+" document", s.Title)
			assert.Equal(t, []string{"type"}, s.Required)

			typ, ok := s.Properties.Get("type")
			require.True(t, ok)
			assert.Equal(t, string(kind), typ.Const)

			for _, name := range []string{"imports", "chunks", "template", "implements", "negative_prompt", "generation"} {
				_, ok := s.Properties.Get(name)
				assert.True(t, ok, "missing property %s", name)
			}
			_, ok = s.Properties.Get("SourcePath")
			assert.False(t, ok)
		})
	}
}

func TestFor_Theme(t *testing.T) {
	s, err := For(config.KindTheme)
	require.NoError(t, err)

	imports, ok := s.Properties.Get("imports")
	require.True(t, ok)
	require.NotNil(t, imports.AdditionalProperties)
	assert.Len(t, imports.AdditionalProperties.OneOf, 5)

	_, ok = s.Properties.Get("styles")
	assert.True(t, ok)
	_, ok = s.Properties.Get("chunks")
	assert.False(t, ok)
}

func TestFor_Variations(t *testing.T) {
	s, err := For(config.KindVariations)
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
	require.NotNil(t, s.AdditionalProperties)
	assert.Len(t, s.AdditionalProperties.OneOf, 2)
}

func TestFor_Unknown(t *testing.T) {
	_, err := For("workflow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow")
}

func TestJSON(t *testing.T) {
	for _, kind := range Kinds {
		data, err := JSON(kind)
		require.NoError(t, err, kind)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &doc), kind)
		assert.Equal(t, "promptgen "+string(kind)+" document", doc["title"])
		assert.NotEmpty(t, doc["description"])
	}
}
