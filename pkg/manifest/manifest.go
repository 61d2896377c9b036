package manifest

import (
	"encoding/json"
	"os"
	"time"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
)

// Manifest describes one generation run and the files it produced
type Manifest struct {
	Template    string       `json:"template"`
	Name        string       `json:"name"`
	Chain       []string     `json:"chain"`
	Theme       string       `json:"theme,omitempty"`
	Style       string       `json:"style,omitempty"`
	Strategy    StrategyInfo `json:"strategy"`
	Records     int          `json:"records"`
	Imports     []ImportInfo `json:"imports"`
	Outputs     []string     `json:"outputs"`
	Notices     []string     `json:"notices,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// StrategyInfo is the effective generation strategy of the run
type StrategyInfo struct {
	Mode      string `json:"mode"`
	SeedMode  string `json:"seed_mode"`
	Seed      int64  `json:"seed"`
	MaxImages int    `json:"max_images"`
}

// ImportInfo summarizes one bound placeholder
type ImportInfo struct {
	Placeholder string `json:"placeholder"`
	Entries     int    `json:"entries"`
}

// New builds a manifest for a resolved run.
func New(rc *config.ResolvedConfig, ctx *config.ResolvedContext, records int) *Manifest {
	m := &Manifest{
		Template: rc.SourcePath,
		Name:     rc.Name,
		Chain:    rc.Chain,
		Strategy: StrategyInfo{
			Mode:      string(rc.Strategy.Mode),
			SeedMode:  string(rc.Strategy.SeedMode),
			Seed:      rc.Strategy.Seed,
			MaxImages: rc.Strategy.MaxImages,
		},
		Records:     records,
		Notices:     ctx.Notices,
		GeneratedAt: time.Now().UTC(),
	}
	for _, name := range ctx.Available() {
		m.Imports = append(m.Imports, ImportInfo{Placeholder: name, Entries: ctx.Imports[name].Len()})
	}
	return m
}

// Save saves the manifest to a JSON file
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a manifest written by Save.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to decode manifest %s", path)
	}
	return &m, nil
}
