package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crudprobe/internal/exerciser"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSVColumnContract(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	sink := NewSink()
	sink.Add(exerciser.TestResult{
		Type:         exerciser.TypeRouteLink,
		SourceURL:    "https://app.test/hr/employees",
		TargetURL:    "hr/employees",
		Label:        "Route: hr/employees",
		Status:       exerciser.StatusPass,
		ResponseTime: 1250 * time.Millisecond,
		Timestamp:    ts,
	})
	sink.Add(exerciser.TestResult{
		Type:         exerciser.TypeCreate,
		SourceURL:    "https://app.test/hr/employees/create",
		TargetURL:    "hr/employees/42",
		Label:        "CREATE hr.employees",
		Status:       exerciser.StatusFail,
		ErrorMessage: "Creation failed - no success indicators found",
		Timestamp:    ts,
	})

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, sink.WriteCSV(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"type", "source_url", "target_url", "label",
		"status", "response_time", "error_message", "timestamp",
	}, rows[0])

	assert.Equal(t, "route_link_test", rows[1][0])
	assert.Equal(t, "PASS", rows[1][4])
	assert.Equal(t, "1.250", rows[1][5])
	assert.Equal(t, "2026-08-29T10:00:00Z", rows[1][7])

	assert.Equal(t, "crud_create", rows[2][0])
	assert.Equal(t, "FAIL", rows[2][4])
	assert.Empty(t, rows[2][5], "unmeasured response time stays blank")
	assert.Equal(t, "Creation failed - no success indicators found", rows[2][6])
}

func TestWriteCSVEmptyRunStillWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, NewSink().WriteCSV(path))

	rows := readCSV(t, path)
	require.Len(t, rows, 1, "header-only file distinguishes an empty run from no run")
}

func TestWriteCSVCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "report.csv")
	require.NoError(t, NewSink().WriteCSV(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSummarize(t *testing.T) {
	sink := NewSink()
	sink.AddAll([]exerciser.TestResult{
		{Status: exerciser.StatusPass},
		{Status: exerciser.StatusPass},
		{Status: exerciser.StatusFail},
		{Status: exerciser.StatusError},
		{Status: exerciser.StatusUnknown},
	})
	sum := sink.Summarize()
	assert.Equal(t, Summary{Total: 5, Passed: 2, Failed: 1, Errored: 1, Unknown: 1}, sum)
	assert.Equal(t, 5, sink.Len())
}
