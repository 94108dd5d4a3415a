package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/timewindow"
)

// ReadStatus tells how a field accessor produced its value.
type ReadStatus int

const (
	// ReadOK means the value came from the response.
	ReadOK ReadStatus = iota
	// ReadDegraded means the field was absent or unreadable and a default was used.
	ReadDegraded
	// ReadFailed means a required field could not be read.
	ReadFailed
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadDegraded:
		return "degraded"
	case ReadFailed:
		return "failed"
	default:
		return fmt.Sprintf("ReadStatus(%d)", int(s))
	}
}

// Read is the outcome of one field access. Err is set for degraded and
// failed reads and says what went wrong.
type Read[T any] struct {
	Value  T
	Status ReadStatus
	Err    error
}

// Get returns the value, or the error of a failed read. Degraded reads
// return their default without error.
func (r Read[T]) Get() (T, error) {
	if r.Status == ReadFailed {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}

func readOK[T any](v T) Read[T] {
	return Read[T]{Value: v, Status: ReadOK}
}

func readDegraded[T any](def T, err error) Read[T] {
	return Read[T]{Value: def, Status: ReadDegraded, Err: err}
}

func readFailed[T any](err error) Read[T] {
	return Read[T]{Status: ReadFailed, Err: err}
}

// Text reads a required text field.
func Text(resp domain.RawResponse, field string) Read[string] {
	v, ok := resp.Lookup(field)
	if !ok {
		return readFailed[string](fmt.Errorf("%s: %w", field, domain.ErrFieldMissing))
	}
	return readOK(v)
}

// TextOr reads an optional text field, falling back to def.
func TextOr(resp domain.RawResponse, field, def string) Read[string] {
	r := Text(resp, field)
	if r.Status == ReadFailed {
		return readDegraded(def, r.Err)
	}
	return r
}

// Number reads a required numeric field.
func Number(resp domain.RawResponse, field string) Read[float64] {
	v, ok := resp.Lookup(field)
	if !ok {
		return readFailed[float64](fmt.Errorf("%s: %w", field, domain.ErrFieldMissing))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return readFailed[float64](fmt.Errorf("%s=%q: %w", field, v, domain.ErrMalformedValue))
	}
	return readOK(f)
}

// NumberOr reads an optional numeric field, falling back to def when the
// field is absent or not a number.
func NumberOr(resp domain.RawResponse, field string, def float64) Read[float64] {
	r := Number(resp, field)
	if r.Status == ReadFailed {
		return readDegraded(def, r.Err)
	}
	return r
}

// WindowsOr reads an optional time-of-use answer, falling back to an empty set.
func WindowsOr(resp domain.RawResponse, field string) Read[timewindow.Set] {
	raw, ok := resp.Lookup(field)
	if !ok {
		return readDegraded(timewindow.Set{}, fmt.Errorf("%s: %w", field, domain.ErrFieldMissing))
	}
	set, err := timewindow.Parse(raw)
	if err != nil {
		return readFailed[timewindow.Set](fmt.Errorf("%s: %w", field, err))
	}
	return readOK(set)
}
