package schema

import "github.com/couchcryptid/survey-demand-etl/internal/domain"

const markerPrefix = "G_0/respondent_"

// Default returns the tables of the deployed energy survey. Layouts are in
// classification order. The returned value is a fresh copy.
func Default() *Schema {
	return &Schema{
		Layouts: []Layout{
			{
				Category:      domain.CategoryHousehold,
				Marker:        markerPrefix + "household",
				Suffix:        "_H",
				Cooking:       "H_18",
				Meal:          "H_18l",
				Electric:      "H_16",
				DrinkingWater: "H_8",
				Water: map[domain.WaterPurpose]string{
					domain.PurposeServices:   "H_8",
					domain.PurposeIrrigation: "H_10",
					domain.PurposeLivestock:  "H_11",
				},
				RainySeason: "H_10/dry_season_H",
				Revenue: &RevenueFields{
					Amount: "H_2/income_amount_H",
					Period: "H_2/income_period_H",
				},
			},
			{
				Category:      domain.CategoryBusiness,
				Marker:        markerPrefix + "business",
				WorkingDays:   "B_2a",
				Cooking:       "B_13",
				Meal:          "B_13_meal",
				Electric:      "B_11",
				DrinkingWater: "B_7",
				Water: map[domain.WaterPurpose]string{
					domain.PurposeServices: "B_7",
				},
				AgroMachine: "B_14",
				SubtypeMarkers: []SubtypeMarker{
					{Field: "B_1/type_shop", Subtype: domain.SubtypeRetailShop},
					{Field: "B_1/type_bar", Subtype: domain.SubtypeBarRestaurant},
					{Field: "B_1/type_workshop", Subtype: domain.SubtypeWorkshop},
					{Field: "B_1/type_agroprocessing", Subtype: domain.SubtypeAgroProcessing},
					{Field: "B_1/type_other", Subtype: domain.SubtypeOtherBusiness},
				},
				DefaultSubtype: domain.SubtypeOtherBusiness,
			},
			{
				Category:      domain.CategoryService,
				Marker:        markerPrefix + "service",
				Suffix:        "_S",
				WorkingDays:   "S_2",
				Cooking:       "S_5",
				Meal:          "S_5l",
				Electric:      "S_3",
				DrinkingWater: "S_4",
				Water: map[domain.WaterPurpose]string{
					domain.PurposeServices: "S_4",
				},
				SubtypeMarkers: []SubtypeMarker{
					{Field: "S_1/type_primary_S", Subtype: domain.SubtypeSchool},
					{Field: "S_1/type_secondary_S", Subtype: domain.SubtypeSecondarySchool},
					{Field: "S_1/type_hospital_S", Subtype: domain.SubtypeHospital},
					{Field: "S_1/type_hc_S", Subtype: domain.SubtypeHealthCentre},
					{Field: "S_1/type_hp_S", Subtype: domain.SubtypeHealthPost},
					{Field: "S_1/type_worship_S", Subtype: domain.SubtypeReligiousBuilding},
					{Field: "S_1/type_other_S", Subtype: domain.SubtypeOtherService},
				},
				DefaultSubtype: domain.SubtypeOtherService,
			},
			{
				Category:      domain.CategoryLargeScaleFarm,
				Marker:        markerPrefix + "large_scale_farm",
				Suffix:        "_AP",
				WorkingDays:   "AP_2c",
				Cooking:       "AP_9",
				Meal:          "AP_9l",
				Electric:      "AP_8",
				DrinkingWater: "AP_3",
				Water: map[domain.WaterPurpose]string{
					domain.PurposeServices:   "AP_3",
					domain.PurposeIrrigation: "AP_5",
					domain.PurposeLivestock:  "AP_6",
				},
				AgroMachine: "AP_10",
				RainySeason: "AP_5/dry_season_AP",
			},
			{
				Category: domain.CategoryLocalAuthority,
				Marker:   markerPrefix + "local_aut",
				AuthorityCounts: []AuthorityCount{
					{Field: "LA_2/HS_lower", Category: domain.CategoryHousehold, Subtype: domain.SubtypeLowIncome},
					{Field: "LA_2/HS_middle", Category: domain.CategoryHousehold, Subtype: domain.SubtypeMediumIncome},
					{Field: "LA_2/HS_upper", Category: domain.CategoryHousehold, Subtype: domain.SubtypeHighIncome},
					{Field: "LA_2/number_large_farm", Category: domain.CategoryLargeScaleFarm, Subtype: domain.SubtypeNone},
					{Field: "LA_3/number_primary", Category: domain.CategoryService, Subtype: domain.SubtypeSchool},
					{Field: "LA_3/number_secondary", Category: domain.CategoryService, Subtype: domain.SubtypeSecondarySchool},
					{Field: "LA_4/number_hospital", Category: domain.CategoryService, Subtype: domain.SubtypeHospital},
					{Field: "LA_4/number_hc", Category: domain.CategoryService, Subtype: domain.SubtypeHealthCentre},
					{Field: "LA_4/numbert_hp", Category: domain.CategoryService, Subtype: domain.SubtypeHealthPost},
					{Field: "LA_5/number_worship", Category: domain.CategoryService, Subtype: domain.SubtypeReligiousBuilding},
					{Field: "LA_5/number_other_serv", Category: domain.CategoryService, Subtype: domain.SubtypeOtherService},
					{Field: "LA_6/number_shop", Category: domain.CategoryBusiness, Subtype: domain.SubtypeRetailShop},
					{Field: "LA_6/number_bar", Category: domain.CategoryBusiness, Subtype: domain.SubtypeBarRestaurant},
					{Field: "LA_6/number_workshop", Category: domain.CategoryBusiness, Subtype: domain.SubtypeWorkshop},
					{Field: "LA_7/number_mill", Category: domain.CategoryBusiness, Subtype: domain.SubtypeAgroProcessing},
					{Field: "LA_6/number_other_business", Category: domain.CategoryBusiness, Subtype: domain.SubtypeOtherBusiness},
				},
				TotalHouseholds: "LA_2/HS_HH",
			},
		},
		ResidencyField: "G_1b/residency_month",
		Months: []Name{
			{"January", 1}, {"February", 2}, {"March", 3}, {"April", 4},
			{"May", 5}, {"June", 6}, {"July", 7}, {"August", 8},
			{"September", 9}, {"October", 10}, {"November", 11}, {"December", 12},
		},
		Days: []Name{
			{"monday", 0}, {"tuesday", 1}, {"wednesday", 2}, {"thursday", 3},
			{"friday", 4}, {"saturday", 5}, {"sunday", 6},
		},
		WaterRoles: map[domain.WaterPurpose]WaterRoles{
			domain.PurposeServices: {
				Unit:       "service_express",
				Quantity:   "serv_use",
				Window:     "serv_time",
				BucketSize: "serv_dim",
				PumpHead:   "pump_head",
				Duration:   "serv_duration",
			},
			domain.PurposeIrrigation: {
				Flag:       "irrigation",
				Seasonal:   true,
				Unit:       "express",
				Quantity:   "irrigation",
				Window:     "usage",
				BucketSize: "dim",
				PumpHead:   "pump_head_irr",
				Duration:   "irr_time",
			},
			domain.PurposeLivestock: {
				Flag:       "animal_water",
				Seasonal:   true,
				Unit:       "express_animal",
				Quantity:   "animal",
				Window:     "usage_animal",
				BucketSize: "dim_anim",
				PumpHead:   "pump_head_animal",
				Duration:   "animal_time",
			},
		},
		Renames: map[string]string{
			"husker": "husking_mill",
		},
	}
}
