package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/schema"
	"github.com/couchcryptid/survey-demand-etl/internal/timewindow"
	"github.com/couchcryptid/survey-demand-etl/internal/units"
)

// builder carries the state of one extraction.
type builder struct {
	schema       *schema.Schema
	layout       *schema.Layout
	resp         domain.RawResponse
	warnings     []string
	inconsistent bool
}

// keep returns the value of a read that cannot fail, recording a warning
// when it fell back to its default.
func keep[T any](b *builder, r Read[T]) T {
	if r.Status == ReadDegraded {
		b.warnings = append(b.warnings, fmt.Sprintf("defaulted: %v", r.Err))
	}
	return r.Value
}

func (b *builder) field(prefix, role string) string {
	return b.layout.Field(prefix, role)
}

// windows reads an optional time-of-use answer. Only an impossible window
// set fails; a missing answer degrades to no windows.
func (b *builder) windows(field string) (timewindow.Set, error) {
	r := WindowsOr(b.resp, field)
	if r.Status == ReadFailed {
		return nil, r.Err
	}
	return keep(b, r), nil
}

// check flags the record when a facet's duration does not fit its windows.
func (b *builder) check(facet string, set timewindow.Set, hours float64) {
	if timewindow.CheckConsistency(set, hours) {
		b.inconsistent = true
		b.warnings = append(b.warnings, fmt.Sprintf("%s: %.2fh of use does not fit in %dh of windows", facet, hours, set.Width()))
	}
}

// dynamicNames scans the response for fields "<prefix>/<name><role><suffix>"
// and returns the names in sorted order.
func (b *builder) dynamicNames(prefix, role string) []string {
	head := prefix + "/"
	tail := role + b.layout.Suffix
	var names []string
	for _, f := range b.resp.Fields() {
		if !strings.HasPrefix(f, head) || !strings.HasSuffix(f, tail) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(f, head), tail)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (b *builder) build() (*domain.DemandRecord, error) {
	rec := &domain.DemandRecord{
		Appliances:     []domain.ApplianceDemand{},
		CookingDemands: []domain.CookingDemand{},
		CookingFuels:   []domain.CookingFuel{},
		ServiceWater:   make(map[domain.WaterPurpose]domain.ServiceWaterDemand),
		AgroMachines:   []domain.AgroMachineDemand{},
	}

	rec.MonthsPresent = b.monthsPresent()
	rec.WorkingDays = b.workingDays()

	var err error
	if rec.Appliances, err = b.appliances(); err != nil {
		return nil, fmt.Errorf("appliances: %w", err)
	}
	if rec.CookingFuels, rec.CookingDemands, err = b.cooking(); err != nil {
		return nil, fmt.Errorf("cooking: %w", err)
	}
	if rec.DrinkingWater, err = b.drinkingWater(); err != nil {
		return nil, fmt.Errorf("drinking water: %w", err)
	}
	if rec.ServiceWater, err = b.serviceWater(); err != nil {
		return nil, fmt.Errorf("service water: %w", err)
	}
	if rec.AgroMachines, err = b.agroMachines(); err != nil {
		return nil, fmt.Errorf("agro machines: %w", err)
	}

	rec.TimeInconsistent = b.inconsistent
	rec.Warnings = b.warnings
	return rec, nil
}

func allOf(names []schema.Name) []int {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = n.Value
	}
	return out
}

func (b *builder) monthsPresent() []int {
	raw, ok := b.resp.Lookup(b.schema.ResidencyField)
	if !ok {
		b.warnings = append(b.warnings, "months of presence missing, assuming all year")
		return allOf(b.schema.Months)
	}
	months := schema.MatchNames(b.schema.Months, raw)
	if len(months) == 0 {
		b.warnings = append(b.warnings, fmt.Sprintf("no month recognized in %q, assuming all year", raw))
		return allOf(b.schema.Months)
	}
	return months
}

func (b *builder) workingDays() []int {
	if b.layout.WorkingDays == "" {
		return allOf(b.schema.Days)
	}
	field := b.field(b.layout.WorkingDays, "working_day")
	raw, ok := b.resp.Lookup(field)
	if !ok {
		b.warnings = append(b.warnings, fmt.Sprintf("%s missing, assuming every day", field))
		return allOf(b.schema.Days)
	}
	return schema.MatchNames(b.schema.Days, raw)
}

func (b *builder) appliances() ([]domain.ApplianceDemand, error) {
	out := []domain.ApplianceDemand{}
	if b.layout.Electric == "" {
		return out, nil
	}

	p := b.layout.Electric
	for _, name := range b.dynamicNames(p, "_power") {
		number, err := Number(b.resp, b.field(p, name+"_number")).Get()
		if err != nil {
			return nil, err
		}
		power, err := Number(b.resp, b.field(p, name+"_power")).Get()
		if err != nil {
			return nil, err
		}
		hours, err := Number(b.resp, b.field(p, name+"_hour_wd")).Get()
		if err != nil {
			return nil, err
		}
		cycle := keep(b, NumberOr(b.resp, b.field(p, name+"_min_on"), 1))
		windows, err := b.windows(b.field(p, name+"_usage_wd"))
		if err != nil {
			return nil, err
		}

		app := domain.ApplianceDemand{
			Name:           b.schema.Rename(name),
			Number:         number,
			PowerW:         power,
			DailyUsageTime: hours,
			FuncCycleMin:   int(cycle),
			Windows:        windows,
		}
		b.check("appliance "+app.Name, windows, hours)
		out = append(out, app)
	}
	return out, nil
}

func (b *builder) cooking() ([]domain.CookingFuel, []domain.CookingDemand, error) {
	fuels := []domain.CookingFuel{}
	meals := []domain.CookingDemand{}
	if b.layout.Cooking == "" {
		return fuels, meals, nil
	}

	p := b.layout.Cooking
	declared := make(map[string]float64)
	for _, name := range b.dynamicNames(p, "_unit") {
		fuel, err := b.cookingFuel(p, name)
		if err != nil {
			return nil, nil, fmt.Errorf("fuel %s: %w", name, err)
		}
		declared[strings.ToLower(name)] = fuel.FuelAmountDay
		fuels = append(fuels, fuel)
	}

	mp := b.layout.Meal
	perDay, ok := b.resp.Lookup(b.field(mp, "meal_per_day"))
	if !ok {
		if len(fuels) > 0 {
			b.warnings = append(b.warnings, "cooking fuels declared without meals")
		}
		return fuels, meals, nil
	}

	for n := 1; n <= mealCount(perDay); n++ {
		meal, err := b.meal(mp, n, declared)
		if err != nil {
			return nil, nil, fmt.Errorf("meal %d: %w", n, err)
		}
		meals = append(meals, meal)
	}
	return fuels, meals, nil
}

func (b *builder) cookingFuel(p, name string) (domain.CookingFuel, error) {
	unit, err := Text(b.resp, b.field(p, name+"_unit")).Get()
	if err != nil {
		return domain.CookingFuel{}, err
	}
	period, err := Text(b.resp, b.field(p, name+"_time")).Get()
	if err != nil {
		return domain.CookingFuel{}, err
	}
	quantity, err := Number(b.resp, b.field(p, name+"_amount")).Get()
	if err != nil {
		return domain.CookingFuel{}, err
	}

	bag := 0.0
	if units.NeedsContainerSize(unit) {
		bag = keep(b, NumberOr(b.resp, b.field(p, name+"_bag"), 0))
	}
	kg, err := units.ToMassKg(quantity, unit, name, bag)
	if err != nil {
		return domain.CookingFuel{}, err
	}
	daily, err := units.ToPerDay(kg, period)
	if err != nil {
		return domain.CookingFuel{}, err
	}

	return domain.CookingFuel{
		Fuel:          name,
		Unit:          unit,
		Period:        period,
		Quantity:      quantity,
		FuelAmountDay: daily,
	}, nil
}

func (b *builder) meal(mp string, n int, declared map[string]float64) (domain.CookingDemand, error) {
	suffix := strconv.Itoa(n)

	ref, err := Text(b.resp, b.field(mp, "fuels_meal"+suffix)).Get()
	if err != nil {
		return domain.CookingDemand{}, err
	}
	fuel := strings.TrimPrefix(ref, "fuel_")
	amount, ok := declared[strings.ToLower(fuel)]
	if !ok {
		return domain.CookingDemand{}, fmt.Errorf("fuel %q: %w", fuel, domain.ErrUnknownFuelReference)
	}

	cookingTime, err := Number(b.resp, b.field(mp, "time_meal"+suffix)).Get()
	if err != nil {
		return domain.CookingDemand{}, err
	}
	stove := keep(b, TextOr(b.resp, b.field(mp, "cooking_meal"+suffix), ""))
	windows, err := b.windows(b.field(mp, "usage_meal"+suffix))
	if err != nil {
		return domain.CookingDemand{}, err
	}

	m := domain.CookingDemand{
		Meal:          "meal_" + suffix,
		Fuel:          fuel,
		Stove:         stove,
		FuelAmountDay: amount,
		CookingTime:   cookingTime,
		Windows:       windows,
	}
	b.check(m.Meal, windows, cookingTime)
	return m, nil
}

// mealCount reads the meals-per-day answer; anything but one or two means three.
func mealCount(raw string) int {
	switch {
	case strings.Contains(raw, "one"):
		return 1
	case strings.Contains(raw, "two"):
		return 2
	default:
		return 3
	}
}

func (b *builder) waterLiters(quantityField, unitField, bucketField string) (float64, error) {
	quantity, err := Number(b.resp, quantityField).Get()
	if err != nil {
		return 0, err
	}
	unit, err := Text(b.resp, unitField).Get()
	if err != nil {
		return 0, err
	}
	bucket := 0.0
	if units.NeedsBucketSize(unit) {
		bucket = keep(b, NumberOr(b.resp, bucketField, 0))
	}
	return units.ToLiters(quantity, unit, bucket)
}

// drinkingWater has no duration question, so its windows are not checked.
func (b *builder) drinkingWater() (*domain.DrinkingWaterDemand, error) {
	p := b.layout.DrinkingWater
	if p == "" || !b.resp.Has(b.field(p, "drink_use")) {
		return nil, nil
	}

	liters, err := b.waterLiters(b.field(p, "drink_use"), b.field(p, "drinking_express"), b.field(p, "drink_dim"))
	if err != nil {
		return nil, err
	}
	windows, err := b.windows(b.field(p, "drink_time"))
	if err != nil {
		return nil, err
	}
	return &domain.DrinkingWaterDemand{DailyDemand: liters, Windows: windows}, nil
}

func (b *builder) serviceWater() (map[domain.WaterPurpose]domain.ServiceWaterDemand, error) {
	out := make(map[domain.WaterPurpose]domain.ServiceWaterDemand)
	for _, purpose := range domain.WaterPurposes {
		p, ok := b.layout.Water[purpose]
		if !ok || p == "" {
			continue
		}
		roles := b.schema.WaterRoles[purpose]

		var (
			demand  domain.ServiceWaterDemand
			present bool
			err     error
		)
		if roles.Seasonal {
			demand, present, err = b.seasonalWater(p, roles)
		} else {
			demand, present, err = b.uniformWater(p, roles)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", purpose, err)
		}
		if !present {
			continue
		}

		demand.PumpingHead = keep(b, NumberOr(b.resp, b.field(p, roles.PumpHead), 0))
		demand.DemandDuration = keep(b, NumberOr(b.resp, b.field(p, roles.Duration), 0))
		b.check(string(purpose)+" water", demand.Windows, demand.DemandDuration)
		out[purpose] = demand
	}
	return out, nil
}

func (b *builder) uniformWater(p string, roles schema.WaterRoles) (domain.ServiceWaterDemand, bool, error) {
	if roles.Flag != "" && !b.resp.Affirmative(b.field(p, roles.Flag)) {
		return domain.ServiceWaterDemand{}, false, nil
	}
	if !b.resp.Has(b.field(p, roles.Quantity)) {
		return domain.ServiceWaterDemand{}, false, nil
	}

	liters, err := b.waterLiters(b.field(p, roles.Quantity), b.field(p, roles.Unit), b.field(p, roles.BucketSize))
	if err != nil {
		return domain.ServiceWaterDemand{}, false, err
	}
	windows, err := b.windows(b.field(p, roles.Window))
	if err != nil {
		return domain.ServiceWaterDemand{}, false, err
	}

	var demand domain.ServiceWaterDemand
	for i := range demand.DailyDemand {
		demand.DailyDemand[i] = liters
	}
	demand.Windows = windows
	return demand, true, nil
}

func (b *builder) seasonalWater(p string, roles schema.WaterRoles) (domain.ServiceWaterDemand, bool, error) {
	if !b.resp.Affirmative(b.field(p, roles.Flag)) {
		return domain.ServiceWaterDemand{}, false, nil
	}

	liters := make(map[string]float64, len(schema.Seasons))
	var flags timewindow.Flags
	for _, season := range schema.Seasons {
		tag := "_" + season
		l, err := b.waterLiters(b.field(p, roles.Quantity+tag), b.field(p, roles.Unit+tag), b.field(p, roles.BucketSize+tag))
		if err != nil {
			return domain.ServiceWaterDemand{}, false, fmt.Errorf("%s season: %w", season, err)
		}
		liters[season] = l

		raw := keep(b, TextOr(b.resp, b.field(p, roles.Window+tag), ""))
		flags = flags.Or(timewindow.ExtractFlags(raw))
	}

	windows, err := timewindow.Merge(flags)
	if err != nil {
		return domain.ServiceWaterDemand{}, false, err
	}

	rainy := make(map[int]bool)
	raw := keep(b, TextOr(b.resp, b.layout.RainySeason, ""))
	for _, m := range schema.MatchNames(b.schema.Months, raw) {
		rainy[m] = true
	}

	var demand domain.ServiceWaterDemand
	for i := range demand.DailyDemand {
		if rainy[i+1] {
			demand.DailyDemand[i] = liters["rainy"]
		} else {
			demand.DailyDemand[i] = liters["dry"]
		}
	}
	demand.Windows = windows
	return demand, true, nil
}

func (b *builder) agroMachines() ([]domain.AgroMachineDemand, error) {
	out := []domain.AgroMachineDemand{}
	p := b.layout.AgroMachine
	if p == "" {
		return out, nil
	}

	for _, name := range b.dynamicNames(p, "_motor") {
		m, err := b.agroMachine(p, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (b *builder) agroMachine(p, name string) (domain.AgroMachineDemand, error) {
	fuel, err := Text(b.resp, b.field(p, name+"_motor")).Get()
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}
	perRun, err := Number(b.resp, b.field(p, name+"_prod_onerun")).Get()
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}
	throughput, err := Number(b.resp, b.field(p, name+"_hour_prod")).Get()
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}
	perFuel, err := Number(b.resp, b.field(p, name+"_eff")).Get()
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}
	hours, err := Number(b.resp, b.field(p, name+"_hour")).Get()
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}
	period, err := Text(b.resp, b.field(p, name+"_prod_exp")).Get()
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}
	windows, err := b.windows(b.field(p, name+"_usage"))
	if err != nil {
		return domain.AgroMachineDemand{}, err
	}

	m := domain.AgroMachineDemand{
		Name:        b.schema.Rename(name),
		Fuel:        fuel,
		CropPerRun:  perRun,
		Throughput:  throughput,
		CropPerFuel: perFuel,
		UsageTime:   hours,
		Windows:     windows,
	}
	for i, month := range b.schema.Months {
		if i >= len(m.CropProcessedPerDay) {
			break
		}
		role := name + "_prod_" + monthAbbrev(month.Label)
		produced, err := Number(b.resp, b.field(p, role)).Get()
		if err != nil {
			return domain.AgroMachineDemand{}, err
		}
		if m.CropProcessedPerDay[i], err = units.ToPerDay(produced, period); err != nil {
			return domain.AgroMachineDemand{}, err
		}
	}

	b.check("machine "+m.Name, windows, hours)
	return m, nil
}

func monthAbbrev(label string) string {
	label = strings.ToLower(label)
	if len(label) > 3 {
		return label[:3]
	}
	return label
}
