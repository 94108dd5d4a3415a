// Package survey processes one batch of submissions: it indexes respondents
// by category and subtype, reconciles the sample against the local authority
// counts, and emits the weighted demand records.
//
// A Survey moves through Unloaded, Indexed, Weighted and Processed in that
// order. Calling a phase out of order returns domain.ErrInvalidState. Once
// weighted, the numerosity table is frozen and can be read by callers that
// partition the batch across workers.
package survey

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/form"
)

// Household income tercile cut points.
const (
	lowerTercile = 0.33
	upperTercile = 0.66
)

// State is the processing phase of a Survey.
type State int

const (
	StateUnloaded State = iota
	StateIndexed
	StateWeighted
	StateProcessed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateIndexed:
		return "indexed"
	case StateWeighted:
		return "weighted"
	case StateProcessed:
		return "processed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Survey.
type Option func(*Survey)

// WithVerbose logs per-record diagnostics at Info instead of Debug.
func WithVerbose(v bool) Option {
	return func(s *Survey) { s.verbose = v }
}

// Survey holds the state of one batch. It is not safe for concurrent use.
type Survey struct {
	parser  *form.Parser
	logger  *slog.Logger
	verbose bool

	state       State
	order       []string
	responses   map[string]domain.RawResponse
	categories  map[string]domain.Category
	subtypes    map[string]domain.Subtype
	revenues    map[string]float64
	index       map[domain.Category]map[domain.Subtype][]string
	authorityID string
	authority   *domain.AuthoritySummary
	numerosity  map[string]int

	warnings  []domain.Warning
	processed int
	skipped   []string
	excluded  []string
}

// New creates an empty survey.
func New(parser *form.Parser, logger *slog.Logger, opts ...Option) *Survey {
	s := &Survey{
		parser:     parser,
		logger:     logger,
		responses:  make(map[string]domain.RawResponse),
		categories: make(map[string]domain.Category),
		subtypes:   make(map[string]domain.Subtype),
		revenues:   make(map[string]float64),
		index:      make(map[domain.Category]map[domain.Subtype][]string),
		numerosity: make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current phase.
func (s *Survey) State() State { return s.state }

func (s *Survey) require(want State, op string) error {
	if s.state != want {
		return fmt.Errorf("%s in state %s, want %s: %w", op, s.state, want, domain.ErrInvalidState)
	}
	return nil
}

// warn records a batch-level warning.
func (s *Survey) warn(id string, c domain.Category, msg string) {
	s.warnings = append(s.warnings, domain.Warning{RecordID: id, Category: c, Message: msg})
	s.logger.Warn(msg, "id", id, "category", c)
}

// note records a per-record warning without raising it to Warn level.
func (s *Survey) note(id string, c domain.Category, msg string) {
	s.warnings = append(s.warnings, domain.Warning{RecordID: id, Category: c, Message: msg})
	s.diag(id, c, msg)
}

// diag logs a per-record diagnostic at Info when verbose, Debug otherwise.
func (s *Survey) diag(id string, c domain.Category, msg string) {
	level := slog.LevelDebug
	if s.verbose {
		level = slog.LevelInfo
	}
	s.logger.Log(context.Background(), level, msg, "id", id, "category", c)
}

// Load classifies and indexes every submission, keeps the first local
// authority record, and assigns household income terciles.
func (s *Survey) Load(records []domain.RawResponse) error {
	if err := s.require(StateUnloaded, "load"); err != nil {
		return err
	}

	for i, r := range records {
		id := r.ID()
		if id == "" {
			s.warn("", "", fmt.Sprintf("submission %d has no %s, ignored", i, domain.IDField))
			continue
		}
		if _, dup := s.responses[id]; dup {
			s.warn(id, s.categories[id], "duplicate submission id, keeping the first")
			continue
		}

		category := s.parser.Classify(r)
		if category == domain.CategoryLocalAuthority {
			s.loadAuthority(id, r)
			continue
		}

		res, err := s.parser.ResolveSubtype(r, category)
		if err != nil {
			s.warn(id, category, fmt.Sprintf("subtype unresolved, record skipped: %v", err))
			s.skipped = append(s.skipped, id)
			continue
		}
		for _, w := range res.Warnings {
			s.note(id, category, w)
		}

		s.order = append(s.order, id)
		s.responses[id] = r
		s.categories[id] = category
		s.subtypes[id] = res.Subtype
		if res.HasRevenue {
			s.revenues[id] = res.MonthlyRevenue
		}
		if category != domain.CategoryHousehold {
			s.addToIndex(id, category, res.Subtype)
		}
	}

	s.state = StateIndexed
	s.logger.Info("survey loaded",
		"submissions", len(records),
		"respondents", len(s.order),
		"authority", s.authorityID,
	)
	return s.FinalizeHouseholdSubtypes()
}

// loadAuthority keeps the first authority record in ingestion order. If the
// retrieval order is not stable the choice between duplicates is not either.
func (s *Survey) loadAuthority(id string, r domain.RawResponse) {
	if s.authority != nil {
		s.warn(id, domain.CategoryLocalAuthority,
			fmt.Sprintf("more than one local authority record, using %s", s.authorityID))
		return
	}

	res, err := s.parser.Build(r, 1)
	if err != nil || res.Authority == nil {
		s.warn(id, domain.CategoryLocalAuthority, fmt.Sprintf("local authority record unreadable: %v", err))
		return
	}
	s.authorityID = id
	s.authority = res.Authority
	s.responses[id] = r
	s.categories[id] = domain.CategoryLocalAuthority
	for _, w := range res.Authority.Warnings {
		s.warn(id, domain.CategoryLocalAuthority, w)
	}
}

func (s *Survey) addToIndex(id string, c domain.Category, st domain.Subtype) {
	if s.index[c] == nil {
		s.index[c] = make(map[domain.Subtype][]string)
	}
	s.index[c][st] = append(s.index[c][st], id)
}

// FinalizeHouseholdSubtypes splits households into income terciles using the
// 33rd and 66th percentile of the batch's monthly revenues. A revenue equal to
// a cut point falls in the lower group. Households without a readable revenue
// stay unresolved.
func (s *Survey) FinalizeHouseholdSubtypes() error {
	if err := s.require(StateIndexed, "finalize household subtypes"); err != nil {
		return err
	}

	delete(s.index, domain.CategoryHousehold)

	var sorted []float64
	for _, id := range s.order {
		if v, ok := s.revenues[id]; ok && s.categories[id] == domain.CategoryHousehold {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	var low, high float64
	if len(sorted) > 0 {
		low = stat.Quantile(lowerTercile, stat.LinInterp, sorted, nil)
		high = stat.Quantile(upperTercile, stat.LinInterp, sorted, nil)
	}

	for _, id := range s.order {
		if s.categories[id] != domain.CategoryHousehold {
			continue
		}
		st := domain.SubtypeUnresolved
		if v, ok := s.revenues[id]; ok {
			switch {
			case v <= low:
				st = domain.SubtypeLowIncome
			case v <= high:
				st = domain.SubtypeMediumIncome
			default:
				st = domain.SubtypeHighIncome
			}
		}
		s.subtypes[id] = st
		s.addToIndex(id, domain.CategoryHousehold, st)
	}

	s.logger.Debug("household terciles", "households", len(sorted), "p33", low, "p66", high)
	return nil
}

// ComputeNumerosity weights every respondent by the authority count of its
// category and subtype divided by the number sampled. Missing counts, empty
// samples and ratios below one fall back to 1 with a warning.
func (s *Survey) ComputeNumerosity() error {
	if err := s.require(StateIndexed, "compute numerosity"); err != nil {
		return err
	}

	if s.authority == nil {
		s.warn("", "", fmt.Sprintf("%v: numerosity set to 1 for every record", domain.ErrNoAuthorityRecord))
		for _, id := range s.order {
			s.numerosity[id] = 1
		}
		s.state = StateWeighted
		return nil
	}

	for _, c := range domain.Categories {
		for _, st := range sortedSubtypes(s.index[c]) {
			ids := s.index[c][st]
			n := s.weight(c, st, len(ids))
			for _, id := range ids {
				s.numerosity[id] = n
			}
		}
	}

	for _, c := range domain.Categories {
		for _, st := range sortedSubtypes(s.authority.Counts[c]) {
			if s.authority.Counts[c][st] > 0 && len(s.index[c][st]) == 0 {
				s.warn("", c, fmt.Sprintf("%s counted by the local authority but not sampled", label(c, st)))
			}
		}
	}

	s.state = StateWeighted
	return nil
}

func (s *Survey) weight(c domain.Category, st domain.Subtype, sampled int) int {
	count, ok := s.authority.Count(c, st)
	if !ok {
		s.warn("", c, fmt.Sprintf("%s absent from the local authority record, numerosity 1", label(c, st)))
		return 1
	}
	if sampled == 0 {
		return 1
	}
	n := int(math.Round(count / float64(sampled)))
	if n < 1 {
		s.warn("", c, fmt.Sprintf("%s: %.0f counted for %d sampled, numerosity 1", label(c, st), count, sampled))
		return 1
	}
	return n
}

func label(c domain.Category, st domain.Subtype) string {
	if st == domain.SubtypeNone {
		return string(c)
	}
	return string(c) + "/" + string(st)
}

func sortedSubtypes[V any](m map[domain.Subtype]V) []domain.Subtype {
	out := make([]domain.Subtype, 0, len(m))
	for st := range m {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Numerosity returns the weight of a respondent once the survey is weighted.
func (s *Survey) Numerosity(id string) (int, bool) {
	if s.state < StateWeighted {
		return 0, false
	}
	n, ok := s.numerosity[id]
	return n, ok
}

// Subtype returns the resolved subtype of a respondent once indexed.
func (s *Survey) Subtype(id string) (domain.Subtype, bool) {
	st, ok := s.subtypes[id]
	return st, ok
}

// Authority returns the local authority summary, or nil when the batch had none.
func (s *Survey) Authority() *domain.AuthoritySummary {
	return s.authority
}

// Process extracts the selected respondents. A record that fails extraction
// is skipped; a record whose durations do not fit its windows is excluded.
// Neither stops the batch.
func (s *Survey) Process(sel Selector) (map[string]domain.DemandRecord, error) {
	if err := s.require(StateWeighted, "process"); err != nil {
		return nil, err
	}

	out := make(map[string]domain.DemandRecord)
	for _, id := range s.selectIDs(sel) {
		category := s.categories[id]

		res, err := s.parser.Build(s.responses[id], s.numerosity[id])
		if err != nil {
			s.logger.Warn("record extraction failed, skipping", "id", id, "category", category, "error", err)
			s.warnings = append(s.warnings, domain.Warning{RecordID: id, Category: category, Message: err.Error()})
			s.skipped = append(s.skipped, id)
			continue
		}

		rec := res.Demand
		rec.Subtype = s.subtypes[id]
		for _, w := range rec.Warnings {
			s.note(id, category, w)
		}
		if rec.TimeInconsistent {
			s.warn(id, category, "usage durations exceed their time windows, record excluded")
			s.excluded = append(s.excluded, id)
			continue
		}

		out[id] = *rec
		s.processed++
		s.diag(id, category, "processed")
	}

	s.state = StateProcessed
	s.logger.Info("survey processed",
		"processed", s.processed,
		"skipped", len(s.skipped),
		"excluded", len(s.excluded),
	)
	return out, nil
}

func (s *Survey) selectIDs(sel Selector) []string {
	switch sel.kind {
	case selectCategory:
		var ids []string
		for _, id := range s.order {
			if s.categories[id] == sel.category {
				ids = append(ids, id)
			}
		}
		return ids
	case selectIDs:
		var ids []string
		seen := make(map[string]bool, len(sel.ids))
		for _, id := range sel.ids {
			switch c, ok := s.categories[id]; {
			case seen[id]:
				s.warn(id, c, "selected id repeated, processed once")
			case !ok:
				s.warn(id, "", "selected id not in batch")
			case c == domain.CategoryLocalAuthority:
				s.warn(id, c, "selected id is the local authority record, not a demand record")
			default:
				ids = append(ids, id)
			}
			seen[id] = true
		}
		return ids
	default:
		return s.order
	}
}

// Run loads, weights and processes records in one call. It only fails when
// the survey has already been used.
func (s *Survey) Run(records []domain.RawResponse, sel Selector) (map[string]domain.DemandRecord, error) {
	if err := s.Load(records); err != nil {
		return nil, err
	}
	if err := s.ComputeNumerosity(); err != nil {
		return nil, err
	}
	return s.Process(sel)
}
