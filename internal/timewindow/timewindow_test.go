package timewindow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFlags(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Flags
	}{
		{"empty", "", Flags{}},
		{"single bucket", "18-22", Flags{false, false, false, false, true, false}},
		{"space separated", "0-7 18-22 22-24", Flags{true, false, false, false, true, true}},
		{"all buckets", "0-7 7-10 10-12 12-18 18-22 22-24", Flags{true, true, true, true, true, true}},
		{"unrelated text", "morning evening", Flags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractFlags(tt.raw))
		})
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		flags    Flags
		expected Set
	}{
		{"none", Flags{}, Set{}},
		{"morning run", Flags{true, true, false, false, false, false}, Set{{0, 10}}},
		{"evening to midnight", Flags{false, false, false, false, true, true}, Set{{18, 24}}},
		{"whole day", Flags{true, true, true, true, true, true}, Set{{0, 24}}},
		{"alternating", Flags{true, false, true, false, true, false}, Set{{0, 7}, {10, 12}, {18, 22}}},
		{"alternating ending on", Flags{false, true, false, true, false, true}, Set{{7, 10}, {12, 18}, {22, 24}}},
		{"two runs", Flags{false, true, true, false, true, true}, Set{{7, 12}, {18, 24}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Merge(tt.flags)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, set)
		})
	}
}

func TestMerge_AllPatterns(t *testing.T) {
	for mask := 0; mask < 1<<len(Buckets); mask++ {
		var flags Flags
		for i := range flags {
			flags[i] = mask&(1<<i) != 0
		}

		set, err := Merge(flags)
		require.NoError(t, err, "mask %06b", mask)
		assert.LessOrEqual(t, len(set), MaxWindows)

		for i, iv := range set {
			assert.GreaterOrEqual(t, iv.Start, 0)
			assert.LessOrEqual(t, iv.End, 24)
			assert.Less(t, iv.Start, iv.End)
			if i > 0 {
				assert.Less(t, set[i-1].End, iv.Start, "mask %06b: intervals must be sorted and disjoint", mask)
			}
		}

		assert.Equal(t, flags, FlagsOf(set), "mask %06b: round trip", mask)
	}
}

func TestFlagsOr(t *testing.T) {
	dry := Flags{true, false, false, false, false, false}
	rainy := Flags{false, false, false, false, true, false}
	assert.Equal(t, Flags{true, false, false, false, true, false}, dry.Or(rainy))
	assert.True(t, dry.Or(rainy).Any())
	assert.False(t, Flags{}.Any())
}

func TestCheckConsistency(t *testing.T) {
	evening := Set{{18, 22}}

	tests := []struct {
		name     string
		set      Set
		duration float64
		problem  bool
	}{
		{"fits", evening, 3, false},
		{"equal to width", evening, 4, false},
		{"exceeds width", evening, 4.5, true},
		{"split windows summed", Set{{0, 7}, {18, 22}}, 11, false},
		{"empty set with duration", Set{}, 0.5, true},
		{"empty set no duration", Set{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.problem, CheckConsistency(tt.set, tt.duration))
		})
	}
}

func TestSetJSON(t *testing.T) {
	set := Set{{7, 10}, {18, 24}}

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[[7,10],[18,24],null]`, string(data))

	var decoded Set
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}

func TestPadded(t *testing.T) {
	padded := Set{{0, 7}}.Padded()
	require.NotNil(t, padded[0])
	assert.Equal(t, Interval{0, 7}, *padded[0])
	assert.Nil(t, padded[1])
	assert.Nil(t, padded[2])
}
