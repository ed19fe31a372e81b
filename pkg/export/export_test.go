package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Audit log",
		Headers: []string{"Timestamp", "Admin", "Action", "Ref"},
		Rows: [][]string{
			{"2026-01-02 10:00", "alice", "VIEW_REQUEST", "ABCDEF123456"},
			{"2026-01-02 10:05", "", "BULK_DELETE", ""},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Timestamp,Admin,Action,Ref", lines[0])
	assert.Equal(t, "2026-01-02 10:05,,BULK_DELETE,", lines[2])
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Detail"},
		Rows:    [][]string{{"=HYPERLINK(\"http://x\")"}, {"@SUM(A1)"}, {"Deleted 2 requests: A, B"}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"'=HYPERLINK(""http://x"")"`, lines[1])
	assert.Equal(t, "'@SUM(A1)", lines[2])
	assert.Equal(t, "Deleted 2 requests: A, B", lines[3])
}

func TestExportersRejectRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"only-one"})
	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)
	_, err = NewPDFExporter().Render(data)
	require.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcd~", clip("abcdefgh", 5))
}
