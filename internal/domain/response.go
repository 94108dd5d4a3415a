package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IDField is the Kobo submission identifier.
const IDField = "_id"

// RawResponse is one unprocessed survey submission: field identifier to value.
// Values arrive as strings, numbers or booleans depending on the export path.
type RawResponse map[string]any

// ID returns the submission identifier rendered as a string, or "" when absent.
func (r RawResponse) ID() string {
	v, _ := r.Lookup(IDField)
	return v
}

// Lookup returns the trimmed string form of a field. Absent, nil and blank
// values report false.
func (r RawResponse) Lookup(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return "", false
	}
	return s, true
}

// Has reports whether a field carries a non-blank value.
func (r RawResponse) Has(field string) bool {
	_, ok := r.Lookup(field)
	return ok
}

// Affirmative reports whether a yes/no field is answered yes.
func (r RawResponse) Affirmative(field string) bool {
	v, ok := r.Lookup(field)
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

// Fields returns every field identifier in sorted order so scans over
// dynamic field names are deterministic.
func (r RawResponse) Fields() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
