package form_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/form"
	"github.com/couchcryptid/survey-demand-etl/internal/schema"
	"github.com/couchcryptid/survey-demand-etl/internal/timewindow"
)

var fixedNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	os.Exit(m.Run())
}

func loadFixture(t *testing.T, name string) map[string]domain.RawResponse {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", name))
	require.NoError(t, err)

	var records []domain.RawResponse
	require.NoError(t, json.Unmarshal(data, &records))

	byID := make(map[string]domain.RawResponse, len(records))
	for _, r := range records {
		byID[r.ID()] = r
	}
	return byID
}

func newParser() *form.Parser {
	return form.NewParser(schema.Default())
}

func TestClassify(t *testing.T) {
	p := newParser()
	mixed := loadFixture(t, "mixed.json")

	tests := []struct {
		id       string
		expected domain.Category
	}{
		{"900", domain.CategoryLocalAuthority},
		{"2001", domain.CategoryBusiness},
		{"3001", domain.CategoryService},
		{"4001", domain.CategoryLargeScaleFarm},
		{"1001", domain.CategoryHousehold},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Classify(mixed[tt.id]))
		})
	}
}

func TestClassify_Defaults(t *testing.T) {
	p := newParser()

	assert.Equal(t, domain.CategoryHousehold, p.Classify(domain.RawResponse{}))
	assert.Equal(t, domain.CategoryHousehold, p.Classify(domain.RawResponse{
		"G_0/respondent_service": "no",
	}))
	// First marker in table order wins.
	assert.Equal(t, domain.CategoryBusiness, p.Classify(domain.RawResponse{
		"G_0/respondent_service":  "yes",
		"G_0/respondent_business": "yes",
	}))
}

func TestResolveSubtype(t *testing.T) {
	p := newParser()

	tests := []struct {
		name     string
		resp     domain.RawResponse
		category domain.Category
		expected form.SubtypeResolution
	}{
		{
			name:     "household weekly revenue",
			resp:     domain.RawResponse{"H_2/income_amount_H": "25", "H_2/income_period_H": "weekly"},
			category: domain.CategoryHousehold,
			expected: form.SubtypeResolution{Subtype: domain.SubtypeUnresolved, MonthlyRevenue: 100, HasRevenue: true},
		},
		{
			name:     "household daily revenue",
			resp:     domain.RawResponse{"H_2/income_amount_H": 10.0, "H_2/income_period_H": "daily"},
			category: domain.CategoryHousehold,
			expected: form.SubtypeResolution{Subtype: domain.SubtypeUnresolved, MonthlyRevenue: 300, HasRevenue: true},
		},
		{
			name:     "service marker",
			resp:     domain.RawResponse{"S_1/type_hospital_S": "yes", "S_1/type_other_S": "yes"},
			category: domain.CategoryService,
			expected: form.SubtypeResolution{Subtype: domain.SubtypeHospital},
		},
		{
			name:     "business marker",
			resp:     domain.RawResponse{"B_1/type_shop": "no", "B_1/type_workshop": "yes"},
			category: domain.CategoryBusiness,
			expected: form.SubtypeResolution{Subtype: domain.SubtypeWorkshop},
		},
		{
			name:     "farm has no subtype",
			resp:     domain.RawResponse{},
			category: domain.CategoryLargeScaleFarm,
			expected: form.SubtypeResolution{Subtype: domain.SubtypeNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ResolveSubtype(tt.resp, tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveSubtype_Degraded(t *testing.T) {
	p := newParser()

	got, err := p.ResolveSubtype(domain.RawResponse{}, domain.CategoryHousehold)
	require.NoError(t, err)
	assert.Equal(t, domain.SubtypeUnresolved, got.Subtype)
	assert.False(t, got.HasRevenue)
	assert.Len(t, got.Warnings, 1)

	got, err = p.ResolveSubtype(domain.RawResponse{"H_2/income_amount_H": "50"}, domain.CategoryHousehold)
	require.NoError(t, err)
	assert.True(t, got.HasRevenue)
	assert.Equal(t, 50.0, got.MonthlyRevenue)
	assert.Len(t, got.Warnings, 1)

	got, err = p.ResolveSubtype(domain.RawResponse{"H_2/income_amount_H": "50", "H_2/income_period_H": "yearly"}, domain.CategoryHousehold)
	require.NoError(t, err)
	assert.False(t, got.HasRevenue)

	got, err = p.ResolveSubtype(domain.RawResponse{}, domain.CategoryService)
	require.NoError(t, err)
	assert.Equal(t, domain.SubtypeOtherService, got.Subtype)
	assert.Len(t, got.Warnings, 1)
}

func TestBuild_Household(t *testing.T) {
	p := newParser()
	hh := loadFixture(t, "households.json")

	res, err := p.Build(hh["1001"], 20)
	require.NoError(t, err)
	require.Nil(t, res.Authority)
	rec := res.Demand
	require.NotNil(t, rec)

	assert.Equal(t, "1001", rec.ID)
	assert.Equal(t, domain.CategoryHousehold, rec.Category)
	assert.Equal(t, domain.SubtypeUnresolved, rec.Subtype)
	assert.Equal(t, 20, rec.NumUsers)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, rec.MonthsPresent)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, rec.WorkingDays)
	assert.False(t, rec.TimeInconsistent)
	assert.Equal(t, fixedNow, rec.ProcessedAt)

	expectedAppliances := []domain.ApplianceDemand{
		{Name: "light", Number: 4, PowerW: 10, DailyUsageTime: 5, FuncCycleMin: 30, Windows: timewindow.Set{{Start: 18, End: 24}}},
		{Name: "radio", Number: 1, PowerW: 15, DailyUsageTime: 2, FuncCycleMin: 10, Windows: timewindow.Set{{Start: 7, End: 10}}},
	}
	if diff := cmp.Diff(expectedAppliances, rec.Appliances); diff != "" {
		t.Errorf("appliances mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, rec.CookingFuels, 2)
	assert.Equal(t, "charcoal", rec.CookingFuels[0].Fuel)
	assert.InDelta(t, 4.0, rec.CookingFuels[0].FuelAmountDay, 1e-9)
	assert.Equal(t, "lpg", rec.CookingFuels[1].Fuel)
	assert.InDelta(t, 0.55, rec.CookingFuels[1].FuelAmountDay, 1e-9)

	require.Len(t, rec.CookingDemands, 2)
	assert.Equal(t, domain.CookingDemand{
		Meal: "meal_1", Fuel: "charcoal", Stove: "charcoal_stove",
		FuelAmountDay: rec.CookingFuels[0].FuelAmountDay, CookingTime: 1.5,
		Windows: timewindow.Set{{Start: 18, End: 22}},
	}, rec.CookingDemands[0])
	assert.Equal(t, "lpg", rec.CookingDemands[1].Fuel)
	assert.Equal(t, "gas_stove", rec.CookingDemands[1].Stove)

	require.NotNil(t, rec.DrinkingWater)
	assert.Equal(t, 80.0, rec.DrinkingWater.DailyDemand)
	assert.Equal(t, timewindow.Set{{Start: 0, End: 7}}, rec.DrinkingWater.Windows)

	require.Contains(t, rec.ServiceWater, domain.PurposeServices)
	services := rec.ServiceWater[domain.PurposeServices]
	for _, v := range services.DailyDemand {
		assert.Equal(t, 60.0, v)
	}
	assert.Equal(t, timewindow.Set{{Start: 7, End: 10}, {Start: 18, End: 22}}, services.Windows)
	assert.Equal(t, 10.0, services.PumpingHead)
	assert.Equal(t, 2.0, services.DemandDuration)
	assert.NotContains(t, rec.ServiceWater, domain.PurposeIrrigation)
	assert.NotContains(t, rec.ServiceWater, domain.PurposeLivestock)

	assert.Empty(t, rec.AgroMachines)
}

func TestBuild_SeasonalIrrigation(t *testing.T) {
	p := newParser()
	hh := loadFixture(t, "households.json")

	res, err := p.Build(hh["1002"], 1)
	require.NoError(t, err)
	rec := res.Demand

	require.Contains(t, rec.ServiceWater, domain.PurposeIrrigation)
	irr := rec.ServiceWater[domain.PurposeIrrigation]
	assert.Equal(t, [12]float64{50, 50, 50, 200, 200, 200, 200, 200, 200, 200, 50, 50}, irr.DailyDemand)
	assert.Equal(t, timewindow.Set{{Start: 0, End: 10}}, irr.Windows)
	assert.Equal(t, 5.0, irr.PumpingHead)
	assert.Equal(t, 2.0, irr.DemandDuration)
	assert.NotContains(t, rec.ServiceWater, domain.PurposeServices)
}

func TestBuild_Business(t *testing.T) {
	p := newParser()
	mixed := loadFixture(t, "mixed.json")

	res, err := p.Build(mixed["2001"], 2)
	require.NoError(t, err)
	rec := res.Demand

	assert.Equal(t, domain.SubtypeBarRestaurant, rec.Subtype)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, rec.WorkingDays)
	require.Len(t, rec.CookingDemands, 3)
	for _, m := range rec.CookingDemands {
		assert.Equal(t, "firewood", m.Fuel)
		assert.Equal(t, 12.0, m.FuelAmountDay)
	}

	require.Len(t, rec.AgroMachines, 1)
	mill := rec.AgroMachines[0]
	assert.Equal(t, "husking_mill", mill.Name)
	assert.Equal(t, "diesel", mill.Fuel)
	assert.Equal(t, 100.0, mill.Throughput)
	assert.Equal(t, [12]float64{100, 100, 100, 100, 100, 50, 50, 50, 100, 100, 100, 100}, mill.CropProcessedPerDay)
	assert.Equal(t, timewindow.Set{{Start: 7, End: 10}, {Start: 12, End: 18}}, mill.Windows)
	assert.Empty(t, rec.ServiceWater)
	assert.False(t, rec.TimeInconsistent)
}

func TestBuild_LargeScaleFarm(t *testing.T) {
	p := newParser()
	mixed := loadFixture(t, "mixed.json")

	res, err := p.Build(mixed["4001"], 1)
	require.NoError(t, err)
	rec := res.Demand

	assert.Equal(t, domain.SubtypeNone, rec.Subtype)
	assert.Len(t, rec.ServiceWater, 2)

	livestock := rec.ServiceWater[domain.PurposeLivestock]
	assert.Equal(t, 600.0, livestock.DailyDemand[0])
	assert.Equal(t, 1000.0, livestock.DailyDemand[5])
	assert.Equal(t, timewindow.Set{{Start: 7, End: 10}, {Start: 18, End: 22}}, livestock.Windows)

	require.Len(t, rec.AgroMachines, 1)
	assert.Equal(t, "mill", rec.AgroMachines[0].Name)
	assert.Equal(t, 100.0, rec.AgroMachines[0].CropProcessedPerDay[0])
	assert.Empty(t, rec.CookingDemands)
}

func TestBuild_Authority(t *testing.T) {
	p := newParser()
	mixed := loadFixture(t, "mixed.json")

	res, err := p.Build(mixed["900"], 1)
	require.NoError(t, err)
	require.Nil(t, res.Demand)
	a := res.Authority
	require.NotNil(t, a)

	assert.Equal(t, "900", a.ID)
	assert.Equal(t, 80.0, a.TotalHouseholds)
	n, ok := a.Count(domain.CategoryHousehold, domain.SubtypeLowIncome)
	assert.True(t, ok)
	assert.Equal(t, 40.0, n)
	n, ok = a.Count(domain.CategoryBusiness, domain.SubtypeAgroProcessing)
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)
	n, _ = a.Count(domain.CategoryLargeScaleFarm, domain.SubtypeNone)
	assert.Equal(t, 2.0, n)
	assert.Empty(t, a.Warnings)
}

func TestBuild_AuthorityMissingCounts(t *testing.T) {
	p := newParser()

	res, err := p.Build(domain.RawResponse{
		"_id":                     "la",
		"G_0/respondent_local_aut": "yes",
		"LA_2/HS_lower":            "12",
		"LA_2/HS_upper":            "8",
	}, 1)
	require.NoError(t, err)
	a := res.Authority

	_, ok := a.Count(domain.CategoryHousehold, domain.SubtypeMediumIncome)
	assert.False(t, ok)
	assert.Equal(t, 20.0, a.TotalHouseholds)
	assert.NotEmpty(t, a.Warnings)
}

func TestBuild_UnknownFuelReference(t *testing.T) {
	p := newParser()
	mixed := loadFixture(t, "mixed.json")

	_, err := p.Build(mixed["1005"], 1)
	require.ErrorIs(t, err, domain.ErrUnknownFuelReference)
}

func TestBuild_TimeInconsistent(t *testing.T) {
	p := newParser()
	mixed := loadFixture(t, "mixed.json")

	res, err := p.Build(mixed["1006"], 1)
	require.NoError(t, err)
	assert.True(t, res.Demand.TimeInconsistent)
	assert.Len(t, res.Demand.Appliances, 1, "extraction continues past the inconsistency")
	assert.NotEmpty(t, res.Demand.CookingDemands)
}

func TestBuild_RequiredFieldMissing(t *testing.T) {
	p := newParser()
	hh := loadFixture(t, "households.json")

	resp := domain.RawResponse{}
	for k, v := range hh["1004"] {
		resp[k] = v
	}
	delete(resp, "H_16/tv_number_H")

	_, err := p.Build(resp, 1)
	require.ErrorIs(t, err, domain.ErrFieldMissing)
	assert.Contains(t, err.Error(), "H_16/tv_number_H")
}

func TestBuild_BagWithoutSize(t *testing.T) {
	p := newParser()
	hh := loadFixture(t, "households.json")

	resp := domain.RawResponse{}
	for k, v := range hh["1004"] {
		resp[k] = v
	}
	delete(resp, "H_18/charcoal_bag_H")

	_, err := p.Build(resp, 1)
	require.ErrorIs(t, err, domain.ErrMissingConversionFactor)
}

func TestBuild_OptionalDefaults(t *testing.T) {
	p := newParser()

	res, err := p.Build(domain.RawResponse{
		"_id":                    "s1",
		"G_0/respondent_service": "yes",
		"S_1/type_school_S":      "yes",
		"S_3/phone_number_S":     "2",
		"S_3/phone_power_S":      "5",
		"S_3/phone_hour_wd_S":    "2",
		"S_3/phone_usage_wd_S":   "7-10",
		"S_4/drinking_express_S": "liter",
		"S_4/drink_use_S":        "20",
	}, 1)
	require.NoError(t, err)
	rec := res.Demand

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, rec.MonthsPresent)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, rec.WorkingDays)
	require.Len(t, rec.Appliances, 1)
	assert.Equal(t, 1, rec.Appliances[0].FuncCycleMin)
	require.NotNil(t, rec.DrinkingWater)
	assert.Equal(t, timewindow.Set{}, rec.DrinkingWater.Windows)
	assert.GreaterOrEqual(t, len(rec.Warnings), 4)
}
