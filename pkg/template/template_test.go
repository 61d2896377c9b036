package template

import (
	"testing"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(entries ...config.VariationEntry) *config.VariationSet {
	s := config.NewVariationSet()
	for _, e := range entries {
		_ = s.Add(e)
	}
	return s
}

func entry(key, text string) config.VariationEntry {
	return config.VariationEntry{Key: key, Text: text, Weight: 1}
}

func TestParse_ExpandsChunks(t *testing.T) {
	chunks := map[string]*config.ChunkDefinition{
		"Quality": {Name: "Quality", Template: "masterpiece, {Detail}, {@Light}"},
		"Light":   {Name: "Light", Template: "{Lamp} light"},
	}
	tpl, err := Parse("{Hair}, {@Quality}", chunks)
	require.NoError(t, err)

	assert.Equal(t, "{Hair}, masterpiece, {Detail}, {Lamp} light", tpl.Text())
	assert.Equal(t, []string{"Hair", "Detail", "Lamp"}, tpl.Names())
}

func TestParse_ChunkCycle(t *testing.T) {
	chunks := map[string]*config.ChunkDefinition{
		"A": {Name: "A", Template: "a {@B}"},
		"B": {Name: "B", Template: "b {@A}"},
	}
	_, err := Parse("{@A}", chunks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk cycle: A -> B -> A")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestParse_SameChunkTwiceIsNotACycle(t *testing.T) {
	chunks := map[string]*config.ChunkDefinition{
		"Q": {Name: "Q", Template: "best quality"},
	}
	tpl, err := Parse("{@Q}; {@Q}", chunks)
	require.NoError(t, err)
	assert.Equal(t, "best quality; best quality", tpl.Text())
}

func TestParse_MissingChunk(t *testing.T) {
	tpl, err := Parse("{Hair}, {@Nope}", nil)
	require.NoError(t, err)

	unresolved := tpl.Unresolved(map[string]*config.VariationSet{"Hair": set(entry("a", "short hair"))})
	assert.Equal(t, []string{"@Nope"}, unresolved)
	assert.Equal(t, "short hair, ", tpl.Render(map[string]config.VariationEntry{"Hair": entry("a", "short hair")}))
}

func TestParse_BadSelector(t *testing.T) {
	_, err := Parse("{Hair[short}", nil)
	var se *errors.SelectorError
	assert.True(t, errors.As(err, &se))
}

func TestUnresolved(t *testing.T) {
	tpl, err := Parse("{Hair}, {Eyes}, {Mood:0}, {Outfit}, {Eyes}", nil)
	require.NoError(t, err)

	imports := map[string]*config.VariationSet{
		"Hair":   set(entry("a", "short hair")),
		"Outfit": config.NewVariationSet(),
	}
	assert.Equal(t, []string{"Eyes", "Outfit"}, tpl.Unresolved(imports))
}

func TestRender(t *testing.T) {
	tpl, err := Parse("{Hair}, {Outfit.top} and {Outfit.bottom}, {Hair:0}{Mood:0}, {Hair}", nil)
	require.NoError(t, err)

	outfit := config.VariationEntry{
		Key:        "casual",
		Text:       "white shirt, jeans",
		Fields:     map[string]string{"top": "white shirt", "bottom": "jeans"},
		FieldOrder: []string{"top", "bottom"},
	}
	got := tpl.Render(map[string]config.VariationEntry{
		"Hair":   entry("bob", "bob cut"),
		"Outfit": outfit,
	})
	assert.Equal(t, "bob cut, white shirt and jeans, bob cut, bob cut", got)
}

func TestRender_FirstOccurrenceSuppresses(t *testing.T) {
	tpl, err := Parse("{Hair:0}, {Hair}, {Hair[bob]}", nil)
	require.NoError(t, err)

	got := tpl.Render(map[string]config.VariationEntry{"Hair": entry("bob", "bob cut")})
	assert.Equal(t, ", , ", got)
}

func TestFollow(t *testing.T) {
	lead, err := Parse("{Hair}, {Eyes:0}", nil)
	require.NoError(t, err)
	tpl, err := Parse("{Hair:0} {Eyes} {Mood:0}", nil)
	require.NoError(t, err)

	tpl.Follow(lead)
	got := tpl.Render(map[string]config.VariationEntry{
		"Hair": entry("bob", "bob cut"),
		"Eyes": entry("green", "green eyes"),
		"Mood": entry("calm", "calm"),
	})
	assert.Equal(t, "bob cut  ", got)

	spec, _ := tpl.Spec("Hair")
	assert.False(t, spec.Suppress)
}

func TestSpec_FirstOccurrenceGoverns(t *testing.T) {
	tpl, err := Parse("{Hair:2}, {Hair[a,b]}, {Eyes$3}", nil)
	require.NoError(t, err)

	spec, ok := tpl.Spec("Hair")
	require.True(t, ok)
	assert.Equal(t, 2, spec.Limit)
	assert.Empty(t, spec.Strategies)

	spec, _ = tpl.Spec("Eyes")
	assert.Equal(t, 3, spec.Weight)

	_, ok = tpl.Spec("Nope")
	assert.False(t, ok)
}

func TestConflicting(t *testing.T) {
	tpl, err := Parse("{Hair:2}, {Hair}, {Hair[a]}, {Eyes:1}, {Eyes:1}, {Mood}, {Mood.x}", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hair"}, tpl.Conflicting())
}

func TestResolve(t *testing.T) {
	ctx := &config.ResolvedContext{
		Imports: map[string]*config.VariationSet{"Hair": set(entry("a", "short hair"))},
		Chunks:  map[string]*config.ChunkDefinition{"Q": {Name: "Q", Template: "{Hair}, {Light}"}},
	}
	text, unresolved, err := Resolve("{@Q}", ctx, map[string]config.VariationEntry{"Hair": entry("a", "short hair")})
	require.NoError(t, err)
	assert.Equal(t, "short hair, ", text)
	assert.Equal(t, []string{"Light"}, unresolved)
}
