package generator

import (
	"sort"
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/normalize"
	"github.com/grovetools/promptgen/pkg/template"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
)

// Record is one fully resolved prompt.
type Record struct {
	Index          int                    `json:"index" yaml:"index"`
	Prompt         string                 `json:"prompt" yaml:"prompt"`
	NegativePrompt string                 `json:"negativePrompt" yaml:"negativePrompt"`
	Seed           int64                  `json:"seed" yaml:"seed"`
	Variations     map[string]string      `json:"variations" yaml:"variations"`
	Parameters     map[string]interface{} `json:"parameters" yaml:"parameters"`
}

// Generator enumerates the variation space of a resolved template.
type Generator struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate produces the records of rc under strategy. Every placeholder of
// the template and negative prompt must be bound in ctx; otherwise one
// UnresolvedPlaceholderError lists all of them and no record is produced.
func (g *Generator) Generate(rc *config.ResolvedConfig, ctx *config.ResolvedContext, strategy config.Strategy) ([]Record, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	// 1. Parse the template and negative prompt
	prompt, err := template.Parse(rc.Template, ctx.Chunks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse template")
	}
	negative, err := template.Parse(rc.NegativePrompt, ctx.Chunks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse negative prompt")
	}
	negative.Follow(prompt)

	// 2. Check every name before producing anything
	if unresolved := union(prompt.Unresolved(ctx.Imports), negative.Unresolved(ctx.Imports)); len(unresolved) > 0 {
		return nil, Unresolved(unresolved, ctx.Available())
	}

	// 3. Select entries per placeholder and order the loops
	dims, err := g.dimensions(prompt, negative, ctx, strategy.Seed)
	if err != nil {
		return nil, err
	}

	// 4. Enumerate
	radix := make([]int, len(dims))
	for i, d := range dims {
		radix[i] = len(d.entries)
	}
	space, err := newSpace(radix)
	if err != nil && !strategy.Limited() {
		return nil, errors.WithHint(err, "set generation.max_images to bound the output")
	}
	var tuples [][]int
	switch strategy.Mode {
	case config.ModeRandom:
		tuples = space.sample(strategy.MaxImages, newRand(strategy.Seed, sampleStream))
	default:
		tuples = space.sequence(strategy.MaxImages)
	}
	g.logger.Debugf("generator: %d placeholder(s), %s combination(s), %d record(s)", len(dims), space.String(), len(tuples))

	// 5. Render
	seeds := newSeeder(strategy)
	records := make([]Record, 0, len(tuples))
	for i, tuple := range tuples {
		binding := make(map[string]config.VariationEntry, len(dims))
		variations := make(map[string]string, len(dims))
		for d, pick := range tuple {
			e := dims[d].entries[pick]
			binding[dims[d].name] = e
			variations[dims[d].name] = e.Text
		}
		records = append(records, Record{
			Index:          i,
			Prompt:         normalize.Normalize(prompt.Render(binding)),
			NegativePrompt: normalize.Normalize(negative.Render(binding)),
			Seed:           seeds.next(i),
			Variations:     variations,
			Parameters:     cloneParameters(ctx.Parameters),
		})
	}

	g.logger.Infof("Generated %d prompt(s) for %s (%s mode, %s seeds)", len(records), rc.Name, strategy.Mode, strategy.SeedMode)
	return records, nil
}

// dimension is one placeholder's selected entries.
type dimension struct {
	name    string
	weight  int
	entries []config.VariationEntry
}

func (g *Generator) dimensions(prompt, negative *template.Template, ctx *config.ResolvedContext, seed int64) ([]dimension, error) {
	var dims []dimension
	seen := make(map[string]bool)

	for _, t := range []*template.Template{prompt, negative} {
		for _, name := range t.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			spec, _ := t.Spec(name)
			if spec.Suppress {
				continue
			}
			entries, err := spec.Select(ctx.Imports[name], newRand(seed, placeholderStream(name)))
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				return nil, &errors.SelectorError{Placeholder: "{" + spec.Raw + "}", Reason: "selection is empty"}
			}
			dims = append(dims, dimension{name: name, weight: spec.Weight, entries: entries})
		}
	}

	sort.SliceStable(dims, func(i, j int) bool { return dims[i].weight < dims[j].weight })
	return dims, nil
}

// Unresolved builds the aggregate error for names, suggesting the closest
// available name for each where one is close enough.
func Unresolved(names, available []string) error {
	suggestions := make(map[string]string)
	for _, name := range names {
		if s, ok := suggest(name, available); ok {
			suggestions[name] = s
		}
	}
	return &errors.UnresolvedPlaceholderError{
		Names:       names,
		Available:   available,
		Suggestions: suggestions,
	}
}

func suggest(name string, available []string) (string, bool) {
	if ranks := fuzzy.RankFindFold(name, available); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target, true
	}
	best, bestDist := "", len(name)/3+2
	for _, a := range available {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(a)); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, best != ""
}

// cloneParameters copies params so that no nested map or list is shared
// between records.
func cloneParameters(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return cloneParameters(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

func union(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, s := range b {
		found := false
		for _, t := range out {
			if t == s {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}
