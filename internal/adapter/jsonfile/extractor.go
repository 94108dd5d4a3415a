// Package jsonfile reads survey submissions exported to a local JSON file.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// ErrUnsupportedLayout is returned for JSON that is neither an array of
// submissions nor an object with a "results" array.
var ErrUnsupportedLayout = errors.New("expected a JSON array or an object with a results array")

// Extractor reads every submission from a file. The file is read again on
// each call so edits between runs are picked up.
type Extractor struct {
	path string
}

// NewExtractor creates an extractor over the file at path.
func NewExtractor(path string) *Extractor {
	return &Extractor{path: path}
}

// Extract implements pipeline.Extractor.
func (e *Extractor) Extract(ctx context.Context) ([]domain.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("open submissions file: %w", err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.path, err)
	}
	return records, nil
}

// Decode parses either a bare array of submissions or a Kobo API page
// ({"count": n, "results": [...]}). Numbers are kept as json.Number so large
// submission ids keep every digit.
func Decode(r io.Reader) ([]domain.RawResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrUnsupportedLayout
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	switch data[0] {
	case '[':
		var records []domain.RawResponse
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode submissions: %w", err)
		}
		return records, nil
	case '{':
		var page struct {
			Results []domain.RawResponse `json:"results"`
		}
		if err := dec.Decode(&page); err != nil {
			return nil, fmt.Errorf("decode submissions: %w", err)
		}
		if page.Results == nil {
			return nil, ErrUnsupportedLayout
		}
		return page.Results, nil
	default:
		return nil, ErrUnsupportedLayout
	}
}
