package imports

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/loader"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, files map[string]string) (string, *Resolver) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return dir, New(loader.New(logger), logger)
}

var variationFiles = map[string]string{
	"hair.yaml":        "short: short hair\nlong: long hair\n",
	"hair_extra.yaml":  "type: variations\nname: extra\nbraids: braided hair\nbun: hair bun\n",
	"hair_clash.yaml":  "bob: bob cut\nshort: very short hair\n",
	"outfit.yaml":      "variations:\n  dress: red dress\n",
	"outfit_more.yaml": "dress: blue dress\n",
}

func TestResolveOne_SingleFile(t *testing.T) {
	dir, r := setup(t, variationFiles)
	set, err := r.ResolveOne(config.Import{Placeholder: "Hair", Kind: config.ImportSingleFile, Path: "hair.yaml", BaseDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"short", "long"}, set.Keys())
}

func TestResolveOne_MultiFileKeepsOrder(t *testing.T) {
	dir, r := setup(t, variationFiles)
	set, err := r.ResolveOne(config.Import{
		Placeholder: "Hair",
		Kind:        config.ImportMultiFile,
		Sources:     []string{"hair.yaml", "hair_extra.yaml"},
		Strategy:    config.MergeCombine,
		Values:      []config.InlineValue{{Text: "shaved head"}},
		BaseDir:     dir,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, set.Len(), "sizes add up for disjoint sources")
	keys := set.Keys()
	assert.Equal(t, []string{"short", "long", "braids", "bun"}, keys[:4])
	assert.Equal(t, "shaved head", set.At(4).Text)
}

func TestResolveOne_MergeConflict(t *testing.T) {
	dir, r := setup(t, variationFiles)
	_, err := r.ResolveOne(config.Import{
		Placeholder: "Hair",
		Kind:        config.ImportMultiFile,
		Sources:     []string{"hair.yaml", "hair_clash.yaml"},
		Strategy:    config.MergeCombine,
		BaseDir:     dir,
	})

	var mc *errors.MergeConflictError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "short", mc.Key)
	assert.Equal(t, "Hair", mc.Placeholder)
	assert.Equal(t, filepath.Join(dir, "hair.yaml"), mc.FirstSource)
	assert.Equal(t, filepath.Join(dir, "hair_clash.yaml"), mc.SecondSource)
}

func TestResolveOne_Inline(t *testing.T) {
	_, r := setup(t, nil)
	set, err := r.ResolveOne(config.Import{
		Placeholder: "Mood",
		Kind:        config.ImportInline,
		Values:      []config.InlineValue{{Text: "happy"}, {Text: "sad"}, {Text: "happy"}, {Key: "calm", Text: "calm"}},
		Dropped:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{config.InlineKey("happy"), config.InlineKey("sad"), "calm"}, set.Keys())
	assert.Equal(t, "inline:Mood", set.At(0).Source)
}

func TestResolveOne_Errors(t *testing.T) {
	dir, r := setup(t, variationFiles)

	t.Run("missing file", func(t *testing.T) {
		_, err := r.ResolveOne(config.Import{Placeholder: "Hair", Kind: config.ImportSingleFile, Path: "nope.yaml", BaseDir: dir})
		var nf *errors.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("unbound theme reference", func(t *testing.T) {
		_, err := r.ResolveOne(config.Import{Placeholder: "Outfit", Kind: config.ImportThemeRef, ThemeName: "Outfit"})
		var fe *errors.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, errors.FlattenHints(err), "select a theme")
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := r.ResolveOne(config.Import{Placeholder: "Hair", Kind: config.ImportMultiFile, Sources: []string{"hair.yaml"}, Strategy: "override", BaseDir: dir})
		var fe *errors.FormatError
		assert.True(t, errors.As(err, &fe))
	})
}

func TestResolve_KeyedByPlaceholder(t *testing.T) {
	dir, r := setup(t, variationFiles)
	sets, err := r.Resolve([]config.Import{
		{Placeholder: "Hair", Kind: config.ImportSingleFile, Path: "hair.yaml", BaseDir: dir},
		{Placeholder: "Outfit", Kind: config.ImportSingleFile, Path: "outfit.yaml", BaseDir: dir},
	})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, map[string]string{"dress": "red dress"}, sets["Outfit"].Texts())
}

func TestConflicts_ReportsEveryImport(t *testing.T) {
	dir, r := setup(t, variationFiles)
	errs := r.Conflicts([]config.Import{
		{Placeholder: "Hair", Kind: config.ImportMultiFile, Sources: []string{"hair.yaml", "hair_clash.yaml"}, Strategy: config.MergeCombine, BaseDir: dir},
		{Placeholder: "Outfit", Kind: config.ImportMultiFile, Sources: []string{"outfit.yaml", "outfit_more.yaml"}, Strategy: config.MergeCombine, BaseDir: dir},
		{Placeholder: "Mood", Kind: config.ImportInline, Values: []config.InlineValue{{Text: "x"}}},
	})
	require.Len(t, errs, 2)

	var mc *errors.MergeConflictError
	require.True(t, errors.As(errs[0], &mc))
	assert.Equal(t, "Hair", mc.Placeholder)
	require.True(t, errors.As(errs[1], &mc))
	assert.Equal(t, "Outfit", mc.Placeholder)
	assert.Equal(t, "dress", mc.Key)
}
