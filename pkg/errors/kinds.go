package errors

import (
	"fmt"
	"strings"
)

// NotFoundError reports a document or variation source that does not exist.
type NotFoundError struct {
	Path     string
	Referrer string // document that referenced Path, empty for the entry point
}

func (e *NotFoundError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("document not found: %s", e.Path)
	}
	return fmt.Sprintf("document not found: %s (referenced from %s)", e.Path, e.Referrer)
}

// ParseError reports a malformed document.
type ParseError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("failed to parse ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// PortabilityError reports an absolute path used where only relative paths
// are allowed.
type PortabilityError struct {
	Path     string
	Referrer string
}

func (e *PortabilityError) Error() string {
	return fmt.Sprintf("absolute path %q in %s: referenced documents must use paths relative to the declaring file", e.Path, e.Referrer)
}

// FormatError reports an import declaration whose shape is not recognized.
type FormatError struct {
	Placeholder string
	Source      string
	Reason      string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid import %q in %s: %s", e.Placeholder, e.Source, e.Reason)
}

// MergeConflictError reports a key contributed by two merged variation sources.
type MergeConflictError struct {
	Key          string
	Placeholder  string
	FirstSource  string
	SecondSource string
}

func (e *MergeConflictError) Error() string {
	if e.Placeholder == "" {
		return fmt.Sprintf("duplicate variation key %q in %s and %s", e.Key, e.FirstSource, e.SecondSource)
	}
	return fmt.Sprintf("duplicate variation key %q for {%s}: defined in %s and %s", e.Key, e.Placeholder, e.FirstSource, e.SecondSource)
}

// InheritanceError reports a missing, incompatible or cyclic ancestor.
type InheritanceError struct {
	Child  string
	Parent string
	Reason string
	Err    error
}

func (e *InheritanceError) Error() string {
	msg := fmt.Sprintf("%s implements %s: %s", e.Child, e.Parent, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InheritanceError) Unwrap() error { return e.Err }

// UnresolvedPlaceholderError lists every placeholder without a binding,
// together with the names that are available.
type UnresolvedPlaceholderError struct {
	Names       []string
	Available   []string
	Suggestions map[string]string
}

func (e *UnresolvedPlaceholderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unresolved placeholders: %s", strings.Join(e.Names, ", "))
	if len(e.Available) == 0 {
		b.WriteString(" (no imports available)")
	} else {
		fmt.Fprintf(&b, " (available: %s)", strings.Join(e.Available, ", "))
	}
	for _, name := range e.Names {
		if s, ok := e.Suggestions[name]; ok {
			fmt.Fprintf(&b, "; did you mean {%s} for {%s}?", s, name)
		}
	}
	return b.String()
}

// SelectorError reports malformed or unsatisfiable placeholder syntax.
type SelectorError struct {
	Placeholder string
	Reason      string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid placeholder %q: %s", e.Placeholder, e.Reason)
}

// MissingStyleError reports an import for which no file exists in the
// requested style, in any fallback directory, or without a style.
type MissingStyleError struct {
	Placeholder string
	Path        string
	Style       string
}

func (e *MissingStyleError) Error() string {
	return fmt.Sprintf("no %q variant for {%s}: %s", e.Style, e.Placeholder, e.Path)
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
