// Package normalize canonicalizes the punctuation and whitespace of prompts.
package normalize

import (
	"regexp"
	"strings"
)

var (
	commaRuns  = regexp.MustCompile(`,(?:[ \t]*,)+`)
	commaSpace = regexp.MustCompile(`[ \t]*,[ \t]*`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// Normalize applies, in order: per-line trimming, collapsing of repeated
// commas, removal of a leading or trailing orphan comma, one space after
// every comma and none before, and collapsing of blank-line runs to a
// single blank line. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = trimLines(s)
	s = commaRuns.ReplaceAllString(s, ",")

	for {
		t := strings.TrimSpace(s)
		t = strings.TrimPrefix(t, ",")
		t = strings.TrimSuffix(t, ",")
		t = strings.TrimSpace(t)
		if t == s {
			break
		}
		s = t
	}

	s = commaSpace.ReplaceAllString(s, ", ")
	s = trimRight(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return s
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

func trimRight(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}
