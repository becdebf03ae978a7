package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Day", "Start", "Status"},
		Rows: []map[string]string{
			{"Day": "Monday", "Start": "08:00", "Status": "available"},
			{"Day": "Monday", "Start": "08:45", "Status": "occupied"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,Status", lines[0])
	assert.Equal(t, "Monday,08:00,available", lines[1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Day", "Start"},
		Rows:    []map[string]string{{"Day": "Monday", "Start": "08:00"}},
	}, "Weekly Agenda", "Ana Silva")
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}
