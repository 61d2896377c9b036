// Package theme discovers themes and applies style variants to imports.
//
// A theme is a directory. It is explicit when it holds a theme.yaml
// descriptor, and implicit otherwise, in which case its imports are
// inferred from files named {theme}_{category}[.style].yaml. The category
// becomes a PascalCase placeholder name and the optional style suffix is
// kept as a variant tag.
package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/loader"
	"github.com/sirupsen/logrus"
)

// DescriptorFile is the name of an explicit theme's descriptor.
const DescriptorFile = "theme.yaml"

// Source tells how a theme was discovered.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceImplicit Source = "implicit"
)

// Descriptor is a discovered theme.
type Descriptor struct {
	Name        string
	Dir         string
	Source      Source
	Description string
	Styles      []string
	Imports     []config.Import
	// Variants lists the style tags found per placeholder (implicit themes).
	Variants   map[string][]string
	SourcePath string
}

// Import returns the theme's import for placeholder.
func (d *Descriptor) Import(placeholder string) (config.Import, bool) {
	for _, imp := range d.Imports {
		if imp.Placeholder == placeholder {
			return imp, true
		}
	}
	return config.Import{}, false
}

// Placeholders returns the names the theme binds, in declaration order.
func (d *Descriptor) Placeholders() []string {
	out := make([]string, 0, len(d.Imports))
	for _, imp := range d.Imports {
		out = append(out, imp.Placeholder)
	}
	return out
}

// Resolver discovers themes through a shared Loader.
type Resolver struct {
	loader *loader.Loader
	logger *logrus.Logger
}

// New creates a Resolver.
func New(l *loader.Loader, logger *logrus.Logger) *Resolver {
	return &Resolver{loader: l, logger: logger}
}

// Discover returns the themes under root. root itself is a theme when it
// holds a descriptor; otherwise every subdirectory that yields a theme is
// returned, sorted by name.
func (r *Resolver) Discover(root string) ([]*Descriptor, error) {
	if fileExists(filepath.Join(root, DescriptorFile)) {
		d, err := r.explicit(root)
		if err != nil {
			return nil, err
		}
		return []*Descriptor{d}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Path: root}
		}
		return nil, errors.Wrapf(err, "failed to read theme root %s", root)
	}

	var out []*Descriptor
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, e.Name())
		d, err := r.Load(dir)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	r.logger.Debugf("theme: discovered %d theme(s) under %s", len(out), root)
	return out, nil
}

// Load reads the theme in dir. It returns nil without error when dir is
// neither an explicit nor an implicit theme.
func (r *Resolver) Load(dir string) (*Descriptor, error) {
	if fileExists(filepath.Join(dir, DescriptorFile)) {
		return r.explicit(dir)
	}
	return implicit(dir)
}

// LoadDescriptor reads an explicit theme from a descriptor path relative
// to baseDir.
func (r *Resolver) LoadDescriptor(path, baseDir string) (*Descriptor, error) {
	doc, err := r.loader.Load(path, baseDir)
	if err != nil {
		return nil, err
	}
	return descriptorFrom(doc)
}

func (r *Resolver) explicit(dir string) (*Descriptor, error) {
	doc, err := r.loader.Load(DescriptorFile, dir)
	if err != nil {
		return nil, err
	}
	return descriptorFrom(doc)
}

func descriptorFrom(doc *loader.Document) (*Descriptor, error) {
	th, err := config.ParseTheme(doc)
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Name:        th.Name,
		Dir:         doc.Dir,
		Source:      SourceExplicit,
		Description: th.Description,
		Styles:      th.Styles,
		Imports:     th.Imports,
		SourcePath:  th.SourcePath,
	}, nil
}

func implicit(dir string) (*Descriptor, error) {
	name := filepath.Base(dir)
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_([A-Za-z0-9_-]+?)(?:\.([A-Za-z0-9_-]+))?\.ya?ml$`)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read theme directory %s", dir)
	}

	type category struct {
		base   string
		styled map[string]string
	}
	cats := make(map[string]*category)
	var order []string
	styles := make(map[string]bool)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		placeholder := PlaceholderName(m[1])
		c, ok := cats[placeholder]
		if !ok {
			c = &category{styled: make(map[string]string)}
			cats[placeholder] = c
			order = append(order, placeholder)
		}
		if m[2] == "" {
			c.base = e.Name()
			continue
		}
		c.styled[m[2]] = e.Name()
		styles[m[2]] = true
	}
	if len(order) == 0 {
		return nil, nil
	}

	d := &Descriptor{
		Name:     name,
		Dir:      dir,
		Source:   SourceImplicit,
		Variants: make(map[string][]string),
	}
	for _, placeholder := range order {
		c := cats[placeholder]
		tags := make([]string, 0, len(c.styled))
		for tag := range c.styled {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		d.Variants[placeholder] = tags

		path := c.base
		if path == "" {
			path = c.styled[tags[0]]
		}
		d.Imports = append(d.Imports, config.Import{
			Placeholder: placeholder,
			Kind:        config.ImportSingleFile,
			Path:        path,
			BaseDir:     dir,
			DeclaredIn:  dir,
		})
	}
	for s := range styles {
		d.Styles = append(d.Styles, s)
	}
	sort.Strings(d.Styles)
	return d, nil
}

// PlaceholderName converts a file category such as "hair_color" into the
// placeholder name "HairColor".
func PlaceholderName(category string) string {
	var b strings.Builder
	upper := true
	for _, r := range category {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
