package survey

import "github.com/couchcryptid/survey-demand-etl/internal/domain"

// Report summarizes what happened to a batch.
type Report struct {
	State       State
	Respondents int
	Processed   int
	Skipped     []string
	Excluded    []string
	Warnings    []domain.Warning
	Authority   *domain.AuthoritySummary
}

// Report returns the counts and warnings gathered so far.
func (s *Survey) Report() Report {
	return Report{
		State:       s.state,
		Respondents: len(s.order),
		Processed:   s.processed,
		Skipped:     append([]string(nil), s.skipped...),
		Excluded:    append([]string(nil), s.excluded...),
		Warnings:    append([]domain.Warning(nil), s.warnings...),
		Authority:   s.authority,
	}
}
