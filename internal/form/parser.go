// Package form turns one raw survey submission into a canonical demand record
// or, for the local authority, into the population summary used for weighting.
//
// Extraction is generic over the naming tables of package schema. Every field
// access returns a Read: required fields fail the record, optional fields
// degrade to a default and leave a warning on the record.
package form

import (
	"fmt"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/schema"
	"github.com/couchcryptid/survey-demand-etl/internal/units"
)

// Parser classifies and extracts submissions. It holds no per-record state
// and is safe for concurrent use.
type Parser struct {
	schema *schema.Schema
}

// NewParser creates a parser over the given naming tables.
func NewParser(s *schema.Schema) *Parser {
	return &Parser{schema: s}
}

// Schema returns the naming tables the parser reads with.
func (p *Parser) Schema() *schema.Schema {
	return p.schema
}

// SubtypeResolution is what can be decided about a submission's subtype on
// its own. Households only carry their monthly revenue; the income tercile is
// assigned once the whole batch is known.
type SubtypeResolution struct {
	Subtype        domain.Subtype
	MonthlyRevenue float64
	HasRevenue     bool
	Warnings       []string
}

// Result holds exactly one of a demand record or an authority summary.
type Result struct {
	Demand    *domain.DemandRecord
	Authority *domain.AuthoritySummary
}

// Classify returns the first category whose marker is answered yes, in
// schema order. Unmarked submissions are households.
func (p *Parser) Classify(resp domain.RawResponse) domain.Category {
	for _, l := range p.schema.Layouts {
		if resp.Affirmative(l.Marker) {
			return l.Category
		}
	}
	return domain.CategoryHousehold
}

// ResolveSubtype reads the fields that decide a submission's subtype.
func (p *Parser) ResolveSubtype(resp domain.RawResponse, category domain.Category) (SubtypeResolution, error) {
	layout, ok := p.schema.Layout(category)
	if !ok {
		return SubtypeResolution{}, fmt.Errorf("no layout for category %q", category)
	}

	switch {
	case layout.Revenue != nil:
		return resolveRevenue(resp, layout.Revenue), nil
	case len(layout.SubtypeMarkers) > 0:
		for _, m := range layout.SubtypeMarkers {
			if resp.Affirmative(m.Field) {
				return SubtypeResolution{Subtype: m.Subtype}, nil
			}
		}
		return SubtypeResolution{
			Subtype:  layout.DefaultSubtype,
			Warnings: []string{fmt.Sprintf("no %s type marked, using %q", category, layout.DefaultSubtype)},
		}, nil
	default:
		return SubtypeResolution{Subtype: domain.SubtypeNone}, nil
	}
}

func resolveRevenue(resp domain.RawResponse, f *schema.RevenueFields) SubtypeResolution {
	res := SubtypeResolution{Subtype: domain.SubtypeUnresolved}

	amount, err := Number(resp, f.Amount).Get()
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("revenue unreadable: %v", err))
		return res
	}
	period := TextOr(resp, f.Period, units.Monthly)
	if period.Status == ReadDegraded {
		res.Warnings = append(res.Warnings, fmt.Sprintf("revenue period defaulted to monthly: %v", period.Err))
	}
	monthly, err := units.ToPerMonth(amount, period.Value)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("revenue unreadable: %v", err))
		return res
	}

	res.MonthlyRevenue = monthly
	res.HasRevenue = true
	return res
}

// Build extracts a submission. The local authority yields an authority
// summary; every other category yields a demand record weighted by
// numerosity. Household records carry SubtypeUnresolved until the caller
// assigns the income tercile.
func (p *Parser) Build(resp domain.RawResponse, numerosity int) (Result, error) {
	category := p.Classify(resp)
	layout, ok := p.schema.Layout(category)
	if !ok {
		return Result{}, fmt.Errorf("no layout for category %q", category)
	}

	if category == domain.CategoryLocalAuthority {
		return Result{Authority: buildAuthority(resp, layout)}, nil
	}

	resolution, err := p.ResolveSubtype(resp, category)
	if err != nil {
		return Result{}, err
	}

	b := &builder{
		schema: p.schema,
		layout: layout,
		resp:   resp,
	}
	b.warnings = append(b.warnings, resolution.Warnings...)

	rec, err := b.build()
	if err != nil {
		return Result{}, err
	}
	rec.ID = resp.ID()
	rec.Category = category
	rec.Subtype = resolution.Subtype
	rec.NumUsers = numerosity
	rec.ProcessedAt = domain.Now()
	return Result{Demand: rec}, nil
}

func buildAuthority(resp domain.RawResponse, layout *schema.Layout) *domain.AuthoritySummary {
	summary := &domain.AuthoritySummary{
		ID:     resp.ID(),
		Counts: make(map[domain.Category]map[domain.Subtype]float64),
	}

	households := 0.0
	for _, ac := range layout.AuthorityCounts {
		n, err := Number(resp, ac.Field).Get()
		if err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("authority count skipped: %v", err))
			continue
		}
		if summary.Counts[ac.Category] == nil {
			summary.Counts[ac.Category] = make(map[domain.Subtype]float64)
		}
		summary.Counts[ac.Category][ac.Subtype] += n
		if ac.Category == domain.CategoryHousehold {
			households += n
		}
	}

	total := NumberOr(resp, layout.TotalHouseholds, households)
	if total.Status == ReadDegraded {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("total households taken as sum of income groups: %v", total.Err))
	}
	summary.TotalHouseholds = total.Value
	return summary
}
