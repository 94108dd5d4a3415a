package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

func TestDefault_Valid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefault_ClassificationOrder(t *testing.T) {
	s := Default()
	require.Len(t, s.Layouts, len(domain.Categories))
	for i, c := range domain.Categories {
		assert.Equal(t, c, s.Layouts[i].Category)
	}
}

func TestLayoutField(t *testing.T) {
	s := Default()

	hh, ok := s.Layout(domain.CategoryHousehold)
	require.True(t, ok)
	assert.Equal(t, "H_16/fridge_power_H", hh.Field(hh.Electric, "fridge_power"))

	biz, ok := s.Layout(domain.CategoryBusiness)
	require.True(t, ok)
	assert.Equal(t, "B_11/fridge_power", biz.Field(biz.Electric, "fridge_power"))

	farm, ok := s.Layout(domain.CategoryLargeScaleFarm)
	require.True(t, ok)
	assert.Equal(t, "AP_5/irrigation_dry_AP", farm.Field(farm.Water[domain.PurposeIrrigation], "irrigation_dry"))
}

func TestDefault_ReturnsCopy(t *testing.T) {
	a := Default()
	a.Layouts[0].Suffix = "_X"
	a.Renames["mill"] = "grain_mill"

	b := Default()
	assert.Equal(t, "_H", b.Layouts[0].Suffix)
	assert.Equal(t, "mill", b.Rename("mill"))
}

func TestRename(t *testing.T) {
	s := Default()
	assert.Equal(t, "husking_mill", s.Rename("husker"))
	assert.Equal(t, "grinder", s.Rename("grinder"))
}

func TestMatchNames(t *testing.T) {
	s := Default()
	tests := []struct {
		name     string
		names    []Name
		raw      string
		expected []int
	}{
		{"months", s.Months, "January February December", []int{1, 2, 12}},
		{"months any case", s.Months, "june JULY", []int{6, 7}},
		{"days", s.Days, "monday friday sunday", []int{0, 4, 6}},
		{"nothing", s.Days, "", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchNames(tt.names, tt.raw))
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	s := Default()
	s.Layouts = s.Layouts[:4]
	s.Months = s.Months[:11]
	s.ResidencyField = ""

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no layout for category "local_authority"`)
	assert.Contains(t, err.Error(), "months: want 12 names, got 11")
	assert.Contains(t, err.Error(), "residency_field is required")
}

func TestLoadYAML(t *testing.T) {
	s := Default()
	s.Layouts[0].Suffix = "_HH"
	s.ResidencyField = "G_2/months"

	data, err := yaml.Marshal(s)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadYAML(path)
	require.NoError(t, err)

	hh, ok := loaded.Layout(domain.CategoryHousehold)
	require.True(t, ok)
	assert.Equal(t, "_HH", hh.Suffix)
	assert.Equal(t, "G_2/months", loaded.ResidencyField)
	assert.Equal(t, "H_11", hh.Water[domain.PurposeLivestock])
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Default().WriteYAML(f))
	require.NoError(t, f.Close())

	loaded, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestLoadYAML_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("residency_field: G_1b/residency_month\n"), 0o600))

	_, err := LoadYAML(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema")
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading schema file")
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}
