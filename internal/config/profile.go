package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/survey"
)

// Selection modes accepted in a run profile.
const (
	SelectModeAll      = "all"
	SelectModeCategory = "category"
	SelectModeIDs      = "ids"
)

// RunProfile is the per-run configuration read from a TOML file. It covers the
// choices an analyst makes for one batch rather than deployment settings.
type RunProfile struct {
	Selection SelectionProfile `toml:"selection"`
	Output    OutputProfile    `toml:"output"`
}

// SelectionProfile chooses which respondents are extracted.
type SelectionProfile struct {
	Mode     string   `toml:"mode"`
	Category string   `toml:"category"`
	IDs      []string `toml:"ids"`
}

// OutputProfile controls diagnostics and the debug dump.
type OutputProfile struct {
	Verbose bool   `toml:"verbose"`
	DumpDir string `toml:"dump_dir"`
}

// DefaultProfile selects every respondent with quiet diagnostics and no dump.
func DefaultProfile() *RunProfile {
	return &RunProfile{
		Selection: SelectionProfile{Mode: SelectModeAll},
	}
}

// LoadProfile reads a TOML run profile. An empty path returns the default
// profile; keys missing from the file keep their default values.
func LoadProfile(path string) (*RunProfile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run profile: %w", err)
	}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing run profile %s: %w", path, err)
	}
	if _, err := p.Selector(); err != nil {
		return nil, fmt.Errorf("invalid run profile %s: %w", path, err)
	}
	return p, nil
}

// Save writes the profile as TOML, e.g. to record the settings of a run next
// to its dump.
func (p *RunProfile) Save(path string) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding run profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run profile: %w", err)
	}
	return nil
}

// Selector converts the selection section into a survey selector.
func (p *RunProfile) Selector() (survey.Selector, error) {
	switch p.Selection.Mode {
	case "", SelectModeAll:
		return survey.SelectAll(), nil
	case SelectModeCategory:
		c, ok := domain.ParseCategory(p.Selection.Category)
		if !ok {
			return survey.Selector{}, fmt.Errorf("unknown category %q", p.Selection.Category)
		}
		return survey.SelectCategory(c), nil
	case SelectModeIDs:
		if len(p.Selection.IDs) == 0 {
			return survey.Selector{}, errors.New("selection mode ids needs at least one id")
		}
		return survey.SelectIDs(p.Selection.IDs...), nil
	default:
		return survey.Selector{}, fmt.Errorf("unknown selection mode %q", p.Selection.Mode)
	}
}
