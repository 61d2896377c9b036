package selector

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Spec
	}{
		{"Hair", Spec{Raw: "Hair", Name: "Hair"}},
		{"Outfit.top", Spec{Raw: "Outfit.top", Name: "Outfit", Field: "top"}},
		{"@Quality", Spec{Raw: "@Quality", Name: "Quality", Chunk: true}},
		{"Hair:3", Spec{Raw: "Hair:3", Name: "Hair", Limit: 3}},
		{"Hair:0", Spec{Raw: "Hair:0", Name: "Hair", Suppress: true}},
		{"Hair:#1|4|2", Spec{Raw: "Hair:#1|4|2", Name: "Hair", Indices: []int{1, 4, 2}}},
		{"Hair$5", Spec{Raw: "Hair$5", Name: "Hair", Weight: 5, HasWeight: true}},
		{"Hair:2$1", Spec{Raw: "Hair:2$1", Name: "Hair", Limit: 2, Weight: 1, HasWeight: true}},
		{"Hair[]", Spec{Raw: "Hair[]", Name: "Hair", Strategies: []Strategy{{Kind: SelectAll}}}},
		{
			"Hair[short,long,random:2,range:0-3]",
			Spec{Raw: "Hair[short,long,random:2,range:0-3]", Name: "Hair", Strategies: []Strategy{
				{Kind: SelectKeys, Keys: []string{"short", "long"}},
				{Kind: SelectRandom, Count: 2},
				{Kind: SelectRange, From: 0, To: 3},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, raw := range []string{
		"",
		"@",
		"Hair[short",
		"Hair[random:0]",
		"Hair[range:3-1]",
		"Hair[weird:1]",
		"Hair[a,,b]",
		"Hair:-1",
		"Hair:#",
		"Hair$x",
		"Hair.top.bottom",
		"Hair]",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			var se *errors.SelectorError
			assert.True(t, errors.As(err, &se), "Parse(%q) = %v", raw, err)
		})
	}
}

func newSet(keys ...string) *config.VariationSet {
	set := config.NewVariationSet()
	for _, k := range keys {
		_ = set.Add(config.VariationEntry{Key: k, Text: k + " text", Weight: 1})
	}
	return set
}

func keysOf(entries []config.VariationEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func mustParse(t *testing.T, raw string) Spec {
	t.Helper()
	spec, err := Parse(raw)
	require.NoError(t, err)
	return spec
}

func TestSelect(t *testing.T) {
	set := newSet("a", "b", "c", "d", "e")
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		raw  string
		want []string
	}{
		{"X", []string{"a", "b", "c", "d", "e"}},
		{"X[c,a]", []string{"c", "a"}},
		{"X[c,all]", []string{"c", "a", "b", "d", "e"}},
		{"X[range:1-2]", []string{"b", "c"}},
		{"X[range:3-99]", []string{"d", "e"}},
		{"X:#4|0|4", []string{"e", "a"}},
		{"X[b,c,d]:#2", []string{"d"}},
		{"X:0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := mustParse(t, tt.raw).Select(set, rng)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, keysOf(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Select mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelect_Limit(t *testing.T) {
	set := newSet("a", "b", "c", "d", "e")
	spec := mustParse(t, "X:2")

	first, err := spec.Select(set, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	require.Len(t, first, 2)

	again, err := spec.Select(set, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	assert.Equal(t, keysOf(first), keysOf(again), "same rng seed selects the same entries")

	all, err := mustParse(t, "X:10").Select(set, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	assert.Len(t, all, 5, "a limit above the set size keeps every entry")
}

func TestSelect_RandomUnionKeepsOrder(t *testing.T) {
	set := newSet("a", "b", "c", "d", "e")
	got, err := mustParse(t, "X[random:3]").Select(set, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	require.Len(t, got, 3)
	keys := keysOf(got)
	order := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4}
	for i := 1; i < len(keys); i++ {
		assert.Less(t, order[keys[i-1]], order[keys[i]])
	}
}

func TestSelect_Errors(t *testing.T) {
	set := newSet("a", "b")
	rng := rand.New(rand.NewPCG(0, 0))

	for _, raw := range []string{"X[a,zz]", "X:#5", "X[range:4-6]"} {
		t.Run(raw, func(t *testing.T) {
			_, err := mustParse(t, raw).Select(set, rng)
			var se *errors.SelectorError
			assert.True(t, errors.As(err, &se), "got %v", err)
		})
	}
}

func TestSelect_EmptySet(t *testing.T) {
	got, err := mustParse(t, "X[a]").Select(config.NewVariationSet(), rand.New(rand.NewPCG(0, 0)))
	require.NoError(t, err)
	assert.Empty(t, got)
}
