package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/survey-demand-etl/internal/adapter/dump"
	"github.com/couchcryptid/survey-demand-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/pipeline"
	"github.com/couchcryptid/survey-demand-etl/internal/survey"
)

// TestPipeline_WithMockJSONData runs the offline path used by `run --input`:
// mock export on disk, survey processing, debug dump.
func TestPipeline_WithMockJSONData(t *testing.T) {
	freezeClock(t)

	dumpDir := t.TempDir()
	ext := jsonfile.NewExtractor(filepath.Join("..", "..", "data", "mock", "households.json"))
	dumper := dump.NewWriter(dumpDir, slog.Default())

	p := newPipeline(ext, newTestMetrics(), pipeline.WithLoader("dump", dumper))
	batch, err := p.Run(context.Background(), survey.SelectAll())
	require.NoError(t, err)

	cases := []struct {
		id         string
		subtype    domain.Subtype
		numerosity int
	}{
		{"1001", domain.SubtypeLowIncome, 20},
		{"1002", domain.SubtypeLowIncome, 20},
		{"1003", domain.SubtypeHighIncome, 5},
		{"1004", domain.SubtypeHighIncome, 5},
	}

	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			rec, ok := batch.Records[tc.id]
			require.True(t, ok)
			assert.Equal(t, tc.subtype, rec.Subtype)
			assert.Equal(t, tc.numerosity, rec.NumUsers)

			data, err := os.ReadFile(filepath.Join(dumper.RunDir(batch.RunID), dump.RecordsDir, tc.id+".json"))
			require.NoError(t, err)

			var roundtrip domain.DemandRecord
			require.NoError(t, json.Unmarshal(data, &roundtrip))
			assert.Equal(t, rec.ID, roundtrip.ID)
			assert.Equal(t, rec.Subtype, roundtrip.Subtype)
			assert.Equal(t, rec.NumUsers, roundtrip.NumUsers)
			assert.Equal(t, rec.Appliances, roundtrip.Appliances)
			assert.Equal(t, rec.CookingFuels, roundtrip.CookingFuels)
		})
	}

	assert.FileExists(t, filepath.Join(dumper.RunDir(batch.RunID), dump.AuthorityFile))
	assert.FileExists(t, filepath.Join(dumper.RunDir(batch.RunID), dump.SummaryFile))
}
