package survey

import "github.com/couchcryptid/survey-demand-etl/internal/domain"

type selectorKind int

const (
	selectAll selectorKind = iota
	selectCategory
	selectIDs
)

// Selector chooses which respondents Process extracts.
type Selector struct {
	kind     selectorKind
	category domain.Category
	ids      []string
}

// SelectAll selects every respondent except the local authority.
func SelectAll() Selector { return Selector{kind: selectAll} }

// SelectCategory selects the respondents of one category.
func SelectCategory(c domain.Category) Selector {
	return Selector{kind: selectCategory, category: c}
}

// SelectIDs selects an explicit list of submissions. Unknown ids are warned about.
func SelectIDs(ids ...string) Selector {
	return Selector{kind: selectIDs, ids: ids}
}

// String describes the selection for logs.
func (s Selector) String() string {
	switch s.kind {
	case selectCategory:
		return "category:" + string(s.category)
	case selectIDs:
		return "ids"
	default:
		return "all"
	}
}
