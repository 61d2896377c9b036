// Package settings loads CLI settings from promptgen.yaml files and
// PROMPTGEN_* environment variables.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/spf13/viper"
)

// FileName is the settings file looked up in the working directory and its
// parents, and in the user config directory.
const FileName = "promptgen.yaml"

// Settings are user preferences for the CLI. Document contents always take
// precedence over them, except for explicit command-line flags.
type Settings struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`

	Themes struct {
		Roots        []string `mapstructure:"roots"`
		Styles       []string `mapstructure:"styles"`
		FallbackDirs []string `mapstructure:"fallback_dirs"`
		DefaultStyle string   `mapstructure:"default_style"`
	} `mapstructure:"themes"`

	Output struct {
		Format string `mapstructure:"format"` // json, jsonl, yaml or table
		Dir    string `mapstructure:"dir"`
	} `mapstructure:"output"`

	Generation struct {
		MaxImages int `mapstructure:"max_images"`
	} `mapstructure:"generation"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("themes.roots", []string{})
	v.SetDefault("themes.styles", []string{"sfw", "sexy", "nsfw"})
	v.SetDefault("themes.fallback_dirs", []string{})
	v.SetDefault("themes.default_style", "")
	v.SetDefault("output.format", "json")
	v.SetDefault("output.dir", "")
	v.SetDefault("generation.max_images", 0)
}

// New returns a Viper instance with defaults, environment binding and
// every settings file found merged in, lowest precedence first: user
// config directory, then the nearest project file. Environment variables
// override both files.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PROMPTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	for _, path := range candidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		file := viper.New()
		file.SetConfigFile(path)
		file.SetConfigType("yaml")
		if err := file.ReadInConfig(); err == nil {
			_ = v.MergeConfigMap(file.AllSettings())
		}
	}
	return v
}

// Load reads the settings with New.
func Load() (*Settings, error) {
	return Decode(New())
}

// LoadFile reads settings from one file on top of the defaults.
func LoadFile(path string) (*Settings, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read settings file %s", path)
	}
	return Decode(v)
}

// Decode unmarshals v into Settings.
func Decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal settings")
	}
	return &s, nil
}

func candidates() []string {
	var out []string
	if dir, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(dir, "promptgen", FileName))
	}
	if p := findProjectFile(); p != "" {
		out = append(out, p)
	}
	return out
}

// findProjectFile walks up from the working directory to the first
// directory holding FileName.
func findProjectFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
