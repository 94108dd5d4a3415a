// Package dump writes a processed batch to disk for inspection: one JSON
// file per record, the full batch, the authority summary and a spreadsheet
// overview.
package dump

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
)

// File names inside a run directory.
const (
	RecordsDir    = "records"
	BatchFile     = "batch.json"
	AuthorityFile = "authority.json"
	SummaryFile   = "summary.xlsx"
)

// Writer dumps batches under dir/<run id>/. It implements pipeline.Loader.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a dump writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// RunDir returns the directory a batch with the given run id is written to.
func (w *Writer) RunDir(runID string) string {
	return filepath.Join(w.dir, runID)
}

// Load writes every file of the dump. A partially written directory is left
// in place when a later file fails.
func (w *Writer) Load(ctx context.Context, batch domain.Batch) error {
	runDir := w.RunDir(batch.RunID)
	if err := os.MkdirAll(filepath.Join(runDir, RecordsDir), 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	for _, id := range sortedIDs(batch.Records) {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(runDir, RecordsDir, safeName(id)+".json")
		if err := writeJSON(path, batch.Records[id]); err != nil {
			return err
		}
	}

	if err := writeJSON(filepath.Join(runDir, BatchFile), batch); err != nil {
		return err
	}
	if batch.Authority != nil {
		if err := writeJSON(filepath.Join(runDir, AuthorityFile), batch.Authority); err != nil {
			return err
		}
	}
	if err := WriteSummary(filepath.Join(runDir, SummaryFile), batch); err != nil {
		return err
	}

	w.logger.Info("batch dumped", "dir", runDir, "records", len(batch.Records))
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func sortedIDs(records map[string]domain.DemandRecord) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// safeName escapes a submission id into a single file name inside the
// records directory. Distinct ids map to distinct names.
func safeName(id string) string {
	switch id {
	case "":
		return "_"
	case ".", "..":
		return strings.ReplaceAll(id, ".", "%2E")
	}
	return url.PathEscape(id)
}
