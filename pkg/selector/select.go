package selector

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
)

// Select applies s's annotations to set: bracket strategies first
// (union, first occurrence wins the position), then explicit indices into
// the result, then the limit. rng drives random:N and limits; the caller
// seeds it from the run's base seed.
func (s Spec) Select(set *config.VariationSet, rng *rand.Rand) ([]config.VariationEntry, error) {
	if s.Suppress {
		return nil, nil
	}
	all := set.Entries()
	if len(all) == 0 {
		return nil, nil
	}

	selected := all
	if len(s.Strategies) > 0 {
		var err error
		selected, err = s.applyStrategies(set, all, rng)
		if err != nil {
			return nil, err
		}
	}

	if len(s.Indices) > 0 {
		picked := make([]config.VariationEntry, 0, len(s.Indices))
		used := make(map[int]bool)
		for _, i := range s.Indices {
			if used[i] {
				continue
			}
			used[i] = true
			if i >= len(selected) {
				return nil, &errors.SelectorError{
					Placeholder: "{" + s.Raw + "}",
					Reason:      fmt.Sprintf("index %d out of range (%d entries)", i, len(selected)),
				}
			}
			picked = append(picked, selected[i])
		}
		selected = picked
	}

	if s.Limit > 0 && s.Limit < len(selected) {
		selected = sample(selected, s.Limit, rng)
	}
	return selected, nil
}

func (s Spec) applyStrategies(set *config.VariationSet, all []config.VariationEntry, rng *rand.Rand) ([]config.VariationEntry, error) {
	var out []config.VariationEntry
	seen := make(map[string]bool)
	add := func(e config.VariationEntry) {
		if !seen[e.Key] {
			seen[e.Key] = true
			out = append(out, e)
		}
	}

	for _, st := range s.Strategies {
		switch st.Kind {
		case SelectAll:
			for _, e := range all {
				add(e)
			}
		case SelectKeys:
			var missing []string
			for _, k := range st.Keys {
				e, ok := set.Get(k)
				if !ok {
					missing = append(missing, k)
					continue
				}
				add(e)
			}
			if len(missing) > 0 {
				return nil, &errors.SelectorError{
					Placeholder: "{" + s.Raw + "}",
					Reason:      "unknown keys: " + strings.Join(missing, ", "),
				}
			}
		case SelectRandom:
			for _, e := range sample(all, st.Count, rng) {
				add(e)
			}
		case SelectRange:
			if st.From >= len(all) {
				return nil, &errors.SelectorError{
					Placeholder: "{" + s.Raw + "}",
					Reason:      fmt.Sprintf("range starts past the last entry (%d entries)", len(all)),
				}
			}
			to := st.To
			if to >= len(all) {
				to = len(all) - 1
			}
			for _, e := range all[st.From : to+1] {
				add(e)
			}
		}
	}
	return out, nil
}

// sample picks n entries at random and returns them in their original order.
func sample(entries []config.VariationEntry, n int, rng *rand.Rand) []config.VariationEntry {
	if n >= len(entries) {
		return entries
	}
	idx := rng.Perm(len(entries))[:n]
	sort.Ints(idx)
	out := make([]config.VariationEntry, 0, n)
	for _, i := range idx {
		out = append(out, entries[i])
	}
	return out
}
