package scaffold

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed all:templates
var templatesFS embed.FS

// Types returns the available starter project types.
func Types() []string {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// Init copies the starter project of projectType into dir. Existing files
// are never overwritten; Init fails before writing anything if one of the
// starter files already exists. It returns the paths written, relative to
// dir.
func Init(dir, projectType string, logger *logrus.Logger) ([]string, error) {
	root := path.Join("templates", projectType)
	if _, err := fs.Stat(templatesFS, root); err != nil {
		return nil, errors.WithHintf(
			errors.Newf("unknown project type %q", projectType),
			"available types: %v", Types(),
		)
	}

	var files []string
	err := fs.WalkDir(templatesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedded templates")
	}

	// 1. Check for existing files to prevent overwrite
	for _, rel := range files {
		dest := filepath.Join(dir, rel)
		if _, err := os.Stat(dest); err == nil {
			return nil, errors.Newf("%s already exists", dest)
		}
	}

	// 2. Copy files
	for _, rel := range files {
		dest := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create directories")
		}
		logger.Debugf("Copying %s to %s", rel, dest)
		if err := copyFileFromFS(path.Join(root, filepath.ToSlash(rel)), dest); err != nil {
			return nil, err
		}
	}

	logger.Infof("Created %d starter file(s) in %s", len(files), dir)
	return files, nil
}

func copyFileFromFS(src, dest string) error {
	content, err := templatesFS.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "failed to read embedded file %s", src)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return errors.Wrapf(err, "failed to write file %s", dest)
	}
	return nil
}
