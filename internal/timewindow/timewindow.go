// Package timewindow converts the survey's coarse hour buckets into merged
// usage intervals and checks reported durations against them.
//
// Respondents tick any of six fixed buckets (0-7, 7-10, 10-12, 12-18, 18-22,
// 22-24). Consecutive ticked buckets collapse into one [start, end) interval,
// so six buckets can never produce more than three intervals.
package timewindow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxWindows is the fixed arity of a window set consumed by the simulator.
const MaxWindows = 3

// ErrTooManyWindows is returned when a merge would produce more than MaxWindows intervals.
var ErrTooManyWindows = errors.New("more than 3 usage windows")

// Bucket is one of the fixed hour ranges offered by the survey.
type Bucket struct {
	Label string
	Start int
	End   int
}

// Buckets lists the survey's hour ranges in day order.
var Buckets = [6]Bucket{
	{Label: "0-7", Start: 0, End: 7},
	{Label: "7-10", Start: 7, End: 10},
	{Label: "10-12", Start: 10, End: 12},
	{Label: "12-18", Start: 12, End: 18},
	{Label: "18-22", Start: 18, End: 22},
	{Label: "22-24", Start: 22, End: 24},
}

// Flags records which buckets were ticked, indexed like Buckets.
type Flags [6]bool

// Or returns the bucket-wise union of two flag sets, used to combine the
// dry and rainy season answers of one facet.
func (f Flags) Or(other Flags) Flags {
	var out Flags
	for i := range f {
		out[i] = f[i] || other[i]
	}
	return out
}

// Any reports whether at least one bucket is ticked.
func (f Flags) Any() bool {
	for _, on := range f {
		if on {
			return true
		}
	}
	return false
}

// Interval is a [Start, End) range of hours within a day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Width returns the interval length in hours.
func (i Interval) Width() int { return i.End - i.Start }

// MarshalJSON encodes the interval as a two element array, the shape the
// simulator expects for usage windows.
func (i Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{i.Start, i.End})
}

// UnmarshalJSON accepts the two element array form.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode interval: %w", err)
	}
	i.Start, i.End = pair[0], pair[1]
	return nil
}

// Set is an ordered list of non-overlapping intervals, at most MaxWindows long.
type Set []Interval

// Width returns the summed width of every interval in hours.
func (s Set) Width() int {
	total := 0
	for _, iv := range s {
		total += iv.Width()
	}
	return total
}

// Padded returns the set at the fixed arity used downstream; unused slots are nil.
func (s Set) Padded() [MaxWindows]*Interval {
	var out [MaxWindows]*Interval
	for i := range s {
		if i >= MaxWindows {
			break
		}
		iv := s[i]
		out[i] = &iv
	}
	return out
}

// MarshalJSON always emits MaxWindows entries, padding with null.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Padded())
}

// UnmarshalJSON drops the null padding.
func (s *Set) UnmarshalJSON(data []byte) error {
	var padded []*Interval
	if err := json.Unmarshal(data, &padded); err != nil {
		return fmt.Errorf("decode window set: %w", err)
	}
	out := make(Set, 0, len(padded))
	for _, iv := range padded {
		if iv != nil {
			out = append(out, *iv)
		}
	}
	*s = out
	return nil
}

// ExtractFlags marks a bucket as on when its label appears in the raw answer.
// Kobo multi-select answers arrive as space separated option names.
func ExtractFlags(raw string) Flags {
	var flags Flags
	for i, b := range Buckets {
		flags[i] = strings.Contains(raw, b.Label)
	}
	return flags
}

// Merge collapses runs of consecutive ticked buckets into intervals. A run
// reaching the last bucket closes at 24.
func Merge(flags Flags) (Set, error) {
	set := Set{}
	start := -1
	for i, b := range Buckets {
		switch {
		case flags[i] && start < 0:
			start = b.Start
		case !flags[i] && start >= 0:
			set = append(set, Interval{Start: start, End: b.Start})
			start = -1
		}
	}
	if start >= 0 {
		set = append(set, Interval{Start: start, End: 24})
	}

	if len(set) > MaxWindows {
		return nil, fmt.Errorf("merge %d intervals: %w", len(set), ErrTooManyWindows)
	}
	return set, nil
}

// Parse extracts and merges a raw answer in one step.
func Parse(raw string) (Set, error) {
	return Merge(ExtractFlags(raw))
}

// FlagsOf re-flags a set against the fixed buckets. A bucket is on when it
// lies entirely inside one of the intervals.
func FlagsOf(s Set) Flags {
	var flags Flags
	for i, b := range Buckets {
		for _, iv := range s {
			if b.Start >= iv.Start && b.End <= iv.End {
				flags[i] = true
				break
			}
		}
	}
	return flags
}

// CheckConsistency reports a problem when the reported daily duration does
// not fit in the windows. A duration equal to the total width is fine.
func CheckConsistency(s Set, durationHours float64) bool {
	return durationHours > float64(s.Width())
}
