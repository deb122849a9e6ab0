package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(rows int) Dataset {
	data := Dataset{Columns: []Column{
		{Key: "id", Title: "ID", Width: 15},
		{Key: "name", Title: "F.I.Sh"},
		{Key: "department"},
	}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{"id": "1", "name": "Ali Valiyev", "department": "Fizika"})
	}
	return data
}

func TestCSVExporterUsesTitles(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(1))
	require.NoError(t, err)
	assert.Equal(t, "ID,F.I.Sh,department\n1,Ali Valiyev,Fizika\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRendersManyPages(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(80), "O'qituvchilar", "2026-10-16")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Dataset{}, "", "")
	assert.Error(t, err)
}

func TestColumnWidthsShareRemainder(t *testing.T) {
	widths := columnWidths(sampleDataset(0).Columns)
	assert.Equal(t, 15.0, widths[0])
	assert.InDelta(t, (pageWidth-15)/2, widths[1], 0.001)
	assert.InDelta(t, widths[1], widths[2], 0.001)
}
