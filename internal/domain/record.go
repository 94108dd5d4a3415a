package domain

import (
	"time"

	"github.com/couchcryptid/survey-demand-etl/internal/timewindow"
)

// Category is the respondent type a submission was filled in for.
type Category string

const (
	CategoryHousehold      Category = "household"
	CategoryBusiness       Category = "business"
	CategoryService        Category = "service"
	CategoryLargeScaleFarm Category = "large_scale_farm"
	CategoryLocalAuthority Category = "local_authority"
)

// Categories lists every category in classification order.
var Categories = []Category{
	CategoryHousehold,
	CategoryBusiness,
	CategoryService,
	CategoryLargeScaleFarm,
	CategoryLocalAuthority,
}

// ParseCategory validates a category name. Accepts the names in Categories only.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Subtype is the secondary classification within a category.
type Subtype string

const (
	// SubtypeNone applies to categories without a taxonomy.
	SubtypeNone Subtype = ""
	// SubtypeUnresolved marks a household whose revenue could not be read.
	SubtypeUnresolved Subtype = "unresolved"

	SubtypeLowIncome    Subtype = "low_income_hh"
	SubtypeMediumIncome Subtype = "medium_income_hh"
	SubtypeHighIncome   Subtype = "high_income_hh"

	SubtypeSchool            Subtype = "school"
	SubtypeSecondarySchool   Subtype = "secondary_school"
	SubtypeHospital          Subtype = "hospital"
	SubtypeHealthCentre      Subtype = "health_centre"
	SubtypeHealthPost        Subtype = "health_post"
	SubtypeReligiousBuilding Subtype = "religious_building"
	SubtypeOtherService      Subtype = "other_service"

	SubtypeRetailShop     Subtype = "retail_shop"
	SubtypeBarRestaurant  Subtype = "bar_restaurant"
	SubtypeWorkshop       Subtype = "workshop"
	SubtypeAgroProcessing Subtype = "agro_processing"
	SubtypeOtherBusiness  Subtype = "other_business"
)

// IncomeSubtypes lists household terciles from lowest to highest.
var IncomeSubtypes = []Subtype{SubtypeLowIncome, SubtypeMediumIncome, SubtypeHighIncome}

// WaterPurpose keys service water demand.
type WaterPurpose string

const (
	PurposeServices   WaterPurpose = "services"
	PurposeIrrigation WaterPurpose = "irrigation"
	PurposeLivestock  WaterPurpose = "livestock"
)

// WaterPurposes lists purposes in extraction order.
var WaterPurposes = []WaterPurpose{PurposeServices, PurposeIrrigation, PurposeLivestock}

// ApplianceDemand describes one electric appliance kind owned by the respondent.
type ApplianceDemand struct {
	Name           string         `json:"name"`
	Number         float64        `json:"num_app"`
	PowerW         float64        `json:"power"`
	DailyUsageTime float64        `json:"daily_usage_time"` // hours
	FuncCycleMin   int            `json:"func_cycle"`       // minimum switch-on duration, minutes
	Windows        timewindow.Set `json:"usage_windows"`
}

// CookingFuel is one declared cooking fuel with its consumption normalized to kg per day.
type CookingFuel struct {
	Fuel          string  `json:"fuel"`
	Unit          string  `json:"unit"`
	Period        string  `json:"time"`
	Quantity      float64 `json:"quantity"`
	FuelAmountDay float64 `json:"fuel_amount"`
}

// CookingDemand is one meal prepared on a typical day.
type CookingDemand struct {
	Meal          string         `json:"meal"`
	Fuel          string         `json:"fuel"`
	Stove         string         `json:"stove"`
	FuelAmountDay float64        `json:"fuel_amount"` // kg per day of the referenced fuel
	CookingTime   float64        `json:"cooking_time"`
	Windows       timewindow.Set `json:"cooking_windows"`
}

// DrinkingWaterDemand is the daily drinking water need in liters.
type DrinkingWaterDemand struct {
	DailyDemand float64        `json:"daily_demand"`
	Windows     timewindow.Set `json:"water_windows"`
}

// ServiceWaterDemand is a non-drinking water use with a per-month daily demand.
type ServiceWaterDemand struct {
	DailyDemand    [12]float64    `json:"daily_demand"` // liters per day, January first
	Windows        timewindow.Set `json:"usage_windows"`
	PumpingHead    float64        `json:"pumping_head"`
	DemandDuration float64        `json:"demand_duration"` // hours
}

// AgroMachineDemand is one agro-processing machine and its production calendar.
type AgroMachineDemand struct {
	Name                string         `json:"name"`
	Fuel                string         `json:"fuel"`
	CropPerRun          float64        `json:"crop_processed_per_run"`
	Throughput          float64        `json:"throughput"`
	CropPerFuel         float64        `json:"crop_processed_per_fuel"`
	UsageTime           float64        `json:"usage_time"` // hours
	CropProcessedPerDay [12]float64    `json:"crop_processed_per_day"`
	Windows             timewindow.Set `json:"usage_windows"`
}

// DemandRecord is the canonical per-respondent description handed to the
// load profile simulator.
type DemandRecord struct {
	ID               string                              `json:"id"`
	Category         Category                            `json:"category"`
	Subtype          Subtype                             `json:"subtype,omitempty"`
	NumUsers         int                                 `json:"num_users"`
	MonthsPresent    []int                               `json:"months_present"`
	WorkingDays      []int                               `json:"working_days"`
	Appliances       []ApplianceDemand                   `json:"appliances"`
	CookingDemands   []CookingDemand                     `json:"cooking_demands"`
	CookingFuels     []CookingFuel                       `json:"cooking_fuels"`
	DrinkingWater    *DrinkingWaterDemand                `json:"drinking_water_demand,omitempty"`
	ServiceWater     map[WaterPurpose]ServiceWaterDemand `json:"service_water_demands"`
	AgroMachines     []AgroMachineDemand                 `json:"agro_processing_machines"`
	TimeInconsistent bool                                `json:"time_inconsistent"`
	Warnings         []string                            `json:"warnings,omitempty"`
	ProcessedAt      time.Time                           `json:"processed_at"`
}

// AuthoritySummary holds the population counts reported by the local authority.
type AuthoritySummary struct {
	ID              string                           `json:"id"`
	Counts          map[Category]map[Subtype]float64 `json:"counts"`
	TotalHouseholds float64                          `json:"total_hh"`
	Warnings        []string                         `json:"warnings,omitempty"`
}

// Count returns the reported count for a category and subtype.
func (a *AuthoritySummary) Count(c Category, s Subtype) (float64, bool) {
	if a == nil {
		return 0, false
	}
	v, ok := a.Counts[c][s]
	return v, ok
}

// Warning is one batch or record level diagnostic.
type Warning struct {
	RecordID string   `json:"record_id,omitempty"`
	Category Category `json:"category,omitempty"`
	Message  string   `json:"message"`
}

// Batch is the output of one processing run.
type Batch struct {
	RunID       string                  `json:"run_id"`
	Records     map[string]DemandRecord `json:"records"`
	Authority   *AuthoritySummary       `json:"authority,omitempty"`
	Warnings    []Warning               `json:"warnings"`
	Skipped     []string                `json:"skipped"`
	Excluded    []string                `json:"excluded"`
	ProcessedAt time.Time               `json:"processed_at"`
}
