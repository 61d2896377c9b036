package manifest

import (
	"path/filepath"
	"testing"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved() (*config.ResolvedConfig, *config.ResolvedContext) {
	rc := &config.ResolvedConfig{
		Kind:       config.KindPrompt,
		Name:       "rainy-street",
		SourcePath: "/work/prompts/rainy-street.prompt.yaml",
		Chain:      []string{"/work/portrait.template.yaml", "/work/prompts/rainy-street.prompt.yaml"},
		Strategy: config.Strategy{
			Mode:      config.ModeCombinatorial,
			SeedMode:  config.SeedProgressive,
			Seed:      42,
			MaxImages: 10,
		},
	}

	hair := config.NewVariationSet()
	_ = hair.Add(config.VariationEntry{Key: "red", Text: "red hair", Weight: 1})
	_ = hair.Add(config.VariationEntry{Key: "blue", Text: "blue hair", Weight: 1})
	mood := config.NewVariationSet()
	_ = mood.Add(config.VariationEntry{Key: "happy", Text: "smiling", Weight: 1})

	ctx := &config.ResolvedContext{
		Imports: map[string]*config.VariationSet{"Hair": hair, "Expression": mood},
		Notices: []string{"placeholder {Hair} is annotated differently"},
	}
	return rc, ctx
}

func TestNew(t *testing.T) {
	rc, ctx := resolved()
	m := New(rc, ctx, 10)

	assert.Equal(t, "rainy-street", m.Name)
	assert.Equal(t, rc.SourcePath, m.Template)
	assert.Equal(t, rc.Chain, m.Chain)
	assert.Equal(t, 10, m.Records)
	assert.Equal(t, StrategyInfo{Mode: "combinatorial", SeedMode: "progressive", Seed: 42, MaxImages: 10}, m.Strategy)
	assert.Equal(t, []ImportInfo{
		{Placeholder: "Expression", Entries: 1},
		{Placeholder: "Hair", Entries: 2},
	}, m.Imports)
	assert.Len(t, m.Notices, 1)
	assert.False(t, m.GeneratedAt.IsZero())
}

func TestSaveLoad(t *testing.T) {
	rc, ctx := resolved()
	m := New(rc, ctx, 10)
	m.Theme = "noir"
	m.Style = "sexy"
	m.Outputs = []string{"out/rainy-street.json"}

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, m.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, "noir", got.Theme)
	assert.Equal(t, "sexy", got.Style)
	assert.Equal(t, m.Imports, got.Imports)
	assert.Equal(t, m.Outputs, got.Outputs)
	assert.True(t, m.GeneratedAt.Equal(got.GeneratedAt))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}
