package export

import (
	"bytes"
	"testing"

	"github.com/and161185/peakflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	readings := []model.Reading{
		{Value: 420, Date: "2025-03-02", Time: "08:15:00", Condition: model.IntPtr(8), MorningDose: model.IntPtr(2)},
		{Value: 390, Date: "2025-03-01", Time: "20:00:00"},
	}
	averages := []model.AverageData{
		{Label: "Today", Average: model.IntPtr(420), Count: 1, HasEnoughData: true},
		{Label: "7 days", Count: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, readings, averages))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ReadingsSheet, AveragesSheet}, f.GetSheetList())

	rows, err := f.GetRows(ReadingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ReadingsHeader, rows[0])

	cells := map[string]string{
		"A2": "2025-03-02", "B2": "08:15:00", "C2": "420", "D2": "8", "E2": "2", "F2": "",
		"A3": "2025-03-01", "C3": "390", "D3": "",
	}
	for ref, want := range cells {
		got, err := f.GetCellValue(ReadingsSheet, ref)
		require.NoError(t, err)
		assert.Equal(t, want, got, ref)
	}

	avg := map[string]string{
		"A2": "Today", "B2": "420", "C2": "1", "D2": "yes",
		"A3": "7 days", "B3": "", "C3": "0", "D3": "no",
	}
	for ref, want := range avg {
		got, err := f.GetCellValue(AveragesSheet, ref)
		require.NoError(t, err)
		assert.Equal(t, want, got, ref)
	}
}

func TestWriteXLSX_NoReadings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ReadingsSheet}, f.GetSheetList())
	rows, err := f.GetRows(ReadingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
