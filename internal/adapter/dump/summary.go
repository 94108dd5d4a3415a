package dump

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// Sheet names of the summary workbook.
const (
	RecordsSheet   = "records"
	WarningsSheet  = "warnings"
	AuthoritySheet = "authority"
)

var recordHeaders = []any{
	"id", "category", "subtype", "num_users",
	"months_present", "working_days",
	"appliances", "installed_power_w", "daily_energy_wh",
	"cooking_fuels", "meals", "fuel_kg_per_day",
	"drinking_water_l_per_day", "service_water", "agro_machines",
	"warnings",
}

// WriteSummary writes a workbook with one row per record, one row per
// warning and the local authority counts.
func WriteSummary(path string, batch domain.Batch) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("summary style: %w", err)
	}

	if err := writeRecords(f, batch, headerStyle); err != nil {
		return err
	}
	if err := writeWarnings(f, batch.Warnings, headerStyle); err != nil {
		return err
	}
	if batch.Authority != nil {
		if err := writeAuthority(f, batch.Authority, headerStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, batch domain.Batch, style int) error {
	if err := writeRow(f, RecordsSheet, 1, recordHeaders); err != nil {
		return err
	}
	for i, id := range sortedIDs(batch.Records) {
		if err := writeRow(f, RecordsSheet, i+2, recordRow(batch.Records[id])); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(RecordsSheet, 1, 1, style); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if err := f.SetPanes(RecordsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	return f.SetColWidth(RecordsSheet, "A", "C", 18)
}

func recordRow(rec domain.DemandRecord) []any {
	var power, energy float64
	for _, a := range rec.Appliances {
		power += a.Number * a.PowerW
		energy += a.Number * a.PowerW * a.DailyUsageTime
	}
	var fuel float64
	for _, c := range rec.CookingFuels {
		fuel += c.FuelAmountDay
	}
	var drinking float64
	if rec.DrinkingWater != nil {
		drinking = rec.DrinkingWater.DailyDemand
	}

	return []any{
		rec.ID, string(rec.Category), string(rec.Subtype), rec.NumUsers,
		len(rec.MonthsPresent), len(rec.WorkingDays),
		len(rec.Appliances), power, energy,
		len(rec.CookingFuels), len(rec.CookingDemands), fuel,
		drinking, len(rec.ServiceWater), len(rec.AgroMachines),
		len(rec.Warnings),
	}
}

func writeWarnings(f *excelize.File, warnings []domain.Warning, style int) error {
	if _, err := f.NewSheet(WarningsSheet); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if err := writeRow(f, WarningsSheet, 1, []any{"record_id", "category", "message"}); err != nil {
		return err
	}
	for i, w := range warnings {
		if err := writeRow(f, WarningsSheet, i+2, []any{w.RecordID, string(w.Category), w.Message}); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(WarningsSheet, 1, 1, style); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	return f.SetColWidth(WarningsSheet, "C", "C", 80)
}

func writeAuthority(f *excelize.File, a *domain.AuthoritySummary, style int) error {
	if _, err := f.NewSheet(AuthoritySheet); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if err := writeRow(f, AuthoritySheet, 1, []any{"category", "subtype", "count"}); err != nil {
		return err
	}

	row := 2
	for _, c := range domain.Categories {
		counts, ok := a.Counts[c]
		if !ok {
			continue
		}
		subtypes := make([]string, 0, len(counts))
		for st := range counts {
			subtypes = append(subtypes, string(st))
		}
		sort.Strings(subtypes)
		for _, st := range subtypes {
			if err := writeRow(f, AuthoritySheet, row, []any{string(c), st, counts[domain.Subtype(st)]}); err != nil {
				return err
			}
			row++
		}
	}
	if err := writeRow(f, AuthoritySheet, row, []any{"total_households", "", a.TotalHouseholds}); err != nil {
		return err
	}
	return f.SetRowStyle(AuthoritySheet, 1, 1, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("summary %s row %d: %w", sheet, row, err)
	}
	return nil
}
