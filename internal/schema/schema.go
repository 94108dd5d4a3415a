// Package schema holds the field naming tables of the Kobo energy survey.
//
// Every respondent type answers its own branch of the form. Branches share
// question names but differ in group prefixes and in a trailing suffix, so a
// field identifier is rendered as "<prefix>/<role><suffix>". The tables here
// are the only place those names live; the form parser is generic over them.
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// SubtypeMarker maps a yes/no question to the subtype it selects.
type SubtypeMarker struct {
	Field   string         `yaml:"field"`
	Subtype domain.Subtype `yaml:"subtype"`
}

// RevenueFields locates the household income question pair.
type RevenueFields struct {
	Amount string `yaml:"amount"`
	Period string `yaml:"period"`
}

// AuthorityCount maps a local authority count question to the category and
// subtype it reports on.
type AuthorityCount struct {
	Field    string          `yaml:"field"`
	Category domain.Category `yaml:"category"`
	Subtype  domain.Subtype  `yaml:"subtype"`
}

// Layout describes the branch of the form answered by one category.
// An empty prefix means the branch has no such section.
type Layout struct {
	Category domain.Category `yaml:"category"`
	Marker   string          `yaml:"marker,omitempty"`
	Suffix   string          `yaml:"suffix,omitempty"`

	WorkingDays   string                         `yaml:"working_days,omitempty"`
	Cooking       string                         `yaml:"cooking,omitempty"`
	Meal          string                         `yaml:"meal,omitempty"`
	Electric      string                         `yaml:"electric,omitempty"`
	DrinkingWater string                         `yaml:"drinking_water,omitempty"`
	Water         map[domain.WaterPurpose]string `yaml:"water,omitempty"`
	AgroMachine   string                         `yaml:"agro_machine,omitempty"`
	RainySeason   string                         `yaml:"rainy_season,omitempty"`

	SubtypeMarkers  []SubtypeMarker  `yaml:"subtype_markers,omitempty"`
	DefaultSubtype  domain.Subtype   `yaml:"default_subtype,omitempty"`
	Revenue         *RevenueFields   `yaml:"revenue,omitempty"`
	AuthorityCounts []AuthorityCount `yaml:"authority_counts,omitempty"`
	TotalHouseholds string           `yaml:"total_households,omitempty"`
}

// Field renders the identifier of a question in this branch.
func (l *Layout) Field(prefix, role string) string {
	return prefix + "/" + role + l.Suffix
}

// Name is a label matched inside a free-text answer and the value it stands for.
type Name struct {
	Label string `yaml:"label"`
	Value int    `yaml:"value"`
}

// WaterRoles names the questions of one service water purpose. Seasonal
// purposes are asked twice, with "_dry" and "_rainy" appended to the
// quantity, unit, window and bucket roles.
type WaterRoles struct {
	Flag       string `yaml:"flag"`
	Seasonal   bool   `yaml:"seasonal"`
	Unit       string `yaml:"unit"`
	Quantity   string `yaml:"quantity"`
	Window     string `yaml:"window"`
	BucketSize string `yaml:"bucket_size"`
	PumpHead   string `yaml:"pump_head"`
	Duration   string `yaml:"duration"`
}

// Seasons in the order they are read.
var Seasons = []string{"dry", "rainy"}

// Schema is the complete naming table for one survey deployment.
type Schema struct {
	Layouts        []Layout                           `yaml:"layouts"`
	ResidencyField string                             `yaml:"residency_field"`
	Months         []Name                             `yaml:"months"`
	Days           []Name                             `yaml:"days"`
	WaterRoles     map[domain.WaterPurpose]WaterRoles `yaml:"water_roles"`
	Renames        map[string]string                  `yaml:"renames,omitempty"`
}

// Layout returns the branch answered by a category.
func (s *Schema) Layout(c domain.Category) (*Layout, bool) {
	for i := range s.Layouts {
		if s.Layouts[i].Category == c {
			return &s.Layouts[i], true
		}
	}
	return nil, false
}

// Rename maps a machine or appliance name to its canonical spelling.
func (s *Schema) Rename(name string) string {
	if r, ok := s.Renames[name]; ok {
		return r
	}
	return name
}

// Validate checks that the schema covers every category and names every
// question the parser cannot do without.
func (s *Schema) Validate() error {
	var errs []error
	for _, c := range domain.Categories {
		l, ok := s.Layout(c)
		if !ok {
			errs = append(errs, fmt.Errorf("no layout for category %q", c))
			continue
		}
		if l.Marker == "" {
			errs = append(errs, fmt.Errorf("layout %q: marker is required", c))
		}
		if c == domain.CategoryLocalAuthority {
			if len(l.AuthorityCounts) == 0 {
				errs = append(errs, fmt.Errorf("layout %q: authority_counts is required", c))
			}
			continue
		}
		if l.Cooking != "" && l.Meal == "" {
			errs = append(errs, fmt.Errorf("layout %q: meal prefix is required with cooking", c))
		}
		for p := range l.Water {
			if _, ok := s.WaterRoles[p]; !ok {
				errs = append(errs, fmt.Errorf("layout %q: no water roles for purpose %q", c, p))
			}
		}
	}
	if s.ResidencyField == "" {
		errs = append(errs, errors.New("residency_field is required"))
	}
	if len(s.Months) != 12 {
		errs = append(errs, fmt.Errorf("months: want 12 names, got %d", len(s.Months)))
	}
	if len(s.Days) != 7 {
		errs = append(errs, fmt.Errorf("days: want 7 names, got %d", len(s.Days)))
	}
	return errors.Join(errs...)
}

// MatchNames returns the values of every name whose label appears in raw,
// ignoring case, in table order.
func MatchNames(names []Name, raw string) []int {
	raw = strings.ToLower(raw)
	out := []int{}
	for _, n := range names {
		if strings.Contains(raw, strings.ToLower(n.Label)) {
			out = append(out, n.Value)
		}
	}
	return out
}

// LoadYAML reads a schema override file. The file must describe the whole
// schema; it is validated before use.
func LoadYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return &s, nil
}

// WriteYAML encodes the schema in the format LoadYAML reads, so the built-in
// tables can be exported, edited for a new form version and loaded back.
func (s *Schema) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding schema YAML: %w", err)
	}
	return enc.Close()
}

// Load returns the schema at path, or the built-in one when path is empty.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadYAML(path)
}
