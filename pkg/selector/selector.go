// Package selector parses placeholder annotations.
//
// Grammar, applied left to right after the name:
//
//	{Name}                 full set
//	{Name.field}           field of a multi-part entry
//	{Name[k1,k2]}          keys; also random:N, range:A-B, all, or [] for all
//	{Name:N}               random sample of N entries (N > 0)
//	{Name:0}               suppressed, renders as ""
//	{Name:#|i|j}           explicit ordinal indices, in listed order
//	{Name...$W}            loop-priority weight W >= 0
//	{@Chunk}               fragment injection
package selector

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/grovetools/promptgen/pkg/errors"
)

// StrategyKind is one bracket selection strategy.
type StrategyKind int

const (
	SelectKeys StrategyKind = iota
	SelectRandom
	SelectRange
	SelectAll
)

// Strategy is one comma-separated item inside brackets. Consecutive keys
// are grouped into a single SelectKeys strategy.
type Strategy struct {
	Kind  StrategyKind
	Keys  []string
	Count int // SelectRandom
	From  int // SelectRange, inclusive
	To    int // SelectRange, inclusive
}

// Spec is a parsed placeholder.
type Spec struct {
	Raw   string // text between the braces
	Name  string
	Field string
	Chunk bool // {@Name}

	Strategies []Strategy
	Limit      int // 0 means no limit
	Indices    []int
	Suppress   bool
	Weight     int
	HasWeight  bool
}

// HasSelection reports whether any annotation narrows the set.
func (s Spec) HasSelection() bool {
	return len(s.Strategies) > 0 || s.Limit > 0 || len(s.Indices) > 0
}

// Parse parses the text between the braces of a placeholder.
func Parse(raw string) (Spec, error) {
	spec := Spec{Raw: raw}
	fail := func(reason string) (Spec, error) {
		return Spec{}, &errors.SelectorError{Placeholder: "{" + raw + "}", Reason: reason}
	}

	rest := strings.TrimSpace(raw)
	if strings.HasPrefix(rest, "@") {
		name := rest[1:]
		if !isIdentifier(name) {
			return fail("chunk name must be an identifier")
		}
		spec.Name = name
		spec.Chunk = true
		return spec, nil
	}

	name, rest := scanName(rest)
	if name == "" {
		return fail("missing placeholder name")
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		spec.Name, spec.Field = name[:i], name[i+1:]
		if !isIdentifier(spec.Name) || !isIdentifier(spec.Field) {
			return fail("field accessor must be Name.field")
		}
	} else {
		if !isIdentifier(name) {
			return fail("placeholder name must be an identifier")
		}
		spec.Name = name
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return fail("unterminated selector")
		}
		strategies, err := parseStrategies(rest[1:end])
		if err != nil {
			return fail(err.Error())
		}
		spec.Strategies = strategies
		rest = rest[end+1:]
	}

	if strings.HasPrefix(rest, ":") {
		mod := rest[1:]
		if i := strings.IndexByte(mod, '$'); i >= 0 {
			mod, rest = mod[:i], mod[i:]
		} else {
			rest = ""
		}
		if err := parseModifier(&spec, mod); err != nil {
			return fail(err.Error())
		}
	}

	if strings.HasPrefix(rest, "$") {
		w, err := strconv.Atoi(rest[1:])
		if err != nil || w < 0 {
			return fail("weight must be a non-negative integer")
		}
		spec.Weight = w
		spec.HasWeight = true
		rest = ""
	}

	if rest != "" {
		return fail("unexpected " + strconv.Quote(rest))
	}
	return spec, nil
}

func scanName(s string) (string, string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '[' || c == ':' || c == '$' {
			break
		}
		i++
	}
	return strings.TrimSpace(s[:i]), s[i:]
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '-'):
		default:
			return false
		}
	}
	return true
}

func parseStrategies(body string) ([]Strategy, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return []Strategy{{Kind: SelectAll}}, nil
	}

	var out []Strategy
	var keys []string
	flushKeys := func() {
		if len(keys) > 0 {
			out = append(out, Strategy{Kind: SelectKeys, Keys: keys})
			keys = nil
		}
	}

	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		switch {
		case item == "":
			return nil, errors.New("empty selector item")
		case item == "all":
			flushKeys()
			out = append(out, Strategy{Kind: SelectAll})
		case strings.HasPrefix(item, "random:"):
			n, err := strconv.Atoi(strings.TrimPrefix(item, "random:"))
			if err != nil || n <= 0 {
				return nil, errors.Newf("random count must be a positive integer in %q", item)
			}
			flushKeys()
			out = append(out, Strategy{Kind: SelectRandom, Count: n})
		case strings.HasPrefix(item, "range:"):
			from, to, ok := strings.Cut(strings.TrimPrefix(item, "range:"), "-")
			a, errA := strconv.Atoi(strings.TrimSpace(from))
			b, errB := strconv.Atoi(strings.TrimSpace(to))
			if !ok || errA != nil || errB != nil || a < 0 || b < a {
				return nil, errors.Newf("range must be A-B with 0 <= A <= B in %q", item)
			}
			flushKeys()
			out = append(out, Strategy{Kind: SelectRange, From: a, To: b})
		case strings.Contains(item, ":"):
			return nil, errors.Newf("unknown selector %q", item)
		default:
			keys = append(keys, item)
		}
	}
	flushKeys()
	return out, nil
}

func parseModifier(spec *Spec, mod string) error {
	mod = strings.TrimSpace(mod)
	if strings.HasPrefix(mod, "#") {
		parts := strings.Split(strings.TrimPrefix(mod, "#"), "|")
		for i, p := range parts {
			if i == 0 && p == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 {
				return errors.Newf("index %q must be a non-negative integer", p)
			}
			spec.Indices = append(spec.Indices, n)
		}
		if len(spec.Indices) == 0 {
			return errors.New("index list is empty")
		}
		return nil
	}

	n, err := strconv.Atoi(mod)
	if err != nil || n < 0 {
		return errors.Newf("limit %q must be a non-negative integer", mod)
	}
	if n == 0 {
		spec.Suppress = true
		return nil
	}
	spec.Limit = n
	return nil
}
