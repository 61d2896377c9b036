package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Document is a parsed YAML document. Root is always a mapping node; the
// node tree is kept so that key order survives parsing.
type Document struct {
	Path string // absolute path
	Dir  string // directory of Path, base for the document's own references
	Root *yaml.Node
}

// Lookup returns the value node stored under key in the root mapping.
func (d *Document) Lookup(key string) *yaml.Node {
	return MappingValue(d.Root, key)
}

// Decode decodes the whole document into v.
func (d *Document) Decode(v interface{}) error {
	if err := d.Root.Decode(v); err != nil {
		return &errors.ParseError{Path: d.Path, Err: err}
	}
	return nil
}

// Type returns the document's discriminator field, or "" when absent.
func (d *Document) Type() string {
	n := d.Lookup("type")
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

// Loader reads YAML documents and caches them by absolute path.
//
// The cache is a plain map owned by the Loader and is not safe for
// concurrent use; give concurrent pipelines their own Loader.
type Loader struct {
	logger *logrus.Logger
	cache  map[string]*Document
}

// New creates a Loader with an empty cache.
func New(logger *logrus.Logger) *Loader {
	return &Loader{
		logger: logger,
		cache:  make(map[string]*Document),
	}
}

// Load reads the document at path.
//
// An empty basePath marks the entry point: path may then be absolute or
// relative to the working directory. Otherwise basePath is the directory of
// the referring document, path must be relative to it, and an absolute
// path is rejected with a PortabilityError.
func (l *Loader) Load(path, basePath string) (*Document, error) {
	abs, err := l.Resolve(path, basePath)
	if err != nil {
		return nil, err
	}

	if doc, ok := l.cache[abs]; ok {
		l.logger.Debugf("loader: cache hit for %s", abs)
		return doc, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Path: abs, Referrer: basePath}
		}
		return nil, errors.Wrapf(err, "failed to read %s", abs)
	}

	doc, err := Parse(abs, data)
	if err != nil {
		return nil, err
	}

	l.logger.Debugf("loader: parsed %s", abs)
	l.cache[abs] = doc
	return doc, nil
}

// Resolve returns the absolute path Load would read, applying the same
// portability rules without touching the file system.
func (l *Loader) Resolve(path, basePath string) (string, error) {
	if path == "" {
		return "", errors.New("empty document path")
	}
	if basePath == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", errors.Wrapf(err, "failed to resolve %s", path)
		}
		return abs, nil
	}
	if filepath.IsAbs(path) {
		return "", &errors.PortabilityError{Path: path, Referrer: basePath}
	}
	return filepath.Clean(filepath.Join(basePath, path)), nil
}

// Exists reports whether the document referenced by path exists, without
// parsing it.
func (l *Loader) Exists(path, basePath string) (bool, error) {
	abs, err := l.Resolve(path, basePath)
	if err != nil {
		return false, err
	}
	if _, ok := l.cache[abs]; ok {
		return true, nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to stat %s", abs)
	}
	return !info.IsDir(), nil
}

// Invalidate drops the cached document for path, if any.
func (l *Loader) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	if _, ok := l.cache[abs]; ok {
		l.logger.Debugf("loader: invalidated %s", abs)
		delete(l.cache, abs)
	}
}

// Clear empties the cache.
func (l *Loader) Clear() {
	l.cache = make(map[string]*Document)
}

// Len returns the number of cached documents.
func (l *Loader) Len() int {
	return len(l.cache)
}

// Parse builds a Document from raw YAML bytes read from path.
func Parse(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &errors.ParseError{Path: path, Err: err}
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, &errors.ParseError{Path: path, Reason: "empty document"}
	}

	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &errors.ParseError{Path: path, Line: body.Line, Reason: "top-level value must be a mapping"}
	}

	return &Document{
		Path: path,
		Dir:  filepath.Dir(path),
		Root: body,
	}, nil
}

// MappingValue returns the value node for key in a mapping node, or nil.
func MappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
