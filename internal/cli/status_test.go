package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vietddude/legisync/internal/infra/storage"
	"github.com/vietddude/legisync/internal/pipeline"
)

func TestPrintCountsListsEveryTable(t *testing.T) {
	var buf bytes.Buffer
	printCounts(&buf, map[string]int64{storage.TableMembers: 513, storage.TableBillCategories: 42})

	out := buf.String()
	for _, table := range storage.Tables {
		assert.Contains(t, out, table)
	}
	assert.Contains(t, out, "513")
	assert.Contains(t, out, "42")
}

func TestPrintReport(t *testing.T) {
	start := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	r := pipeline.Report{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Error:      "stage expenses: validation: despesas.csv:3: month must be between 1 and 12",
		Stages: []pipeline.StageResult{
			{Name: pipeline.StageMembers, Status: pipeline.StatusSucceeded, Rows: 513, Duration: 1500 * time.Millisecond},
			{Name: pipeline.StageExpenses, Status: pipeline.StatusFailed, Error: "bad month"},
			{Name: pipeline.StageClassification, Status: pipeline.StatusSkipped},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "failed in 1m30s")
	assert.Contains(t, out, "despesas.csv:3")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "1.5s")
}
