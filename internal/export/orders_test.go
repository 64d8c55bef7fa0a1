package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/printledger/internal/store"
)

func sampleOrders() []store.Order {
	note := "gift wrap"
	return []store.Order{
		{
			ID: 7, ItemID: 1, Quantity: 3, SalePrice: 9.999, SaleDate: "2024-04-02", Notes: &note, Paid: true,
			ItemName: "Vase", MaterialCost: 2.5, ElectricityCost: 0.025, LaborCost: 2, BuildPrice: 4.525,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleOrders()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{
		"7", "2024-04-02", "Vase", "3", "10.00", "30.00", "4.53", "16.42", "22.42", "true", "false", "gift wrap",
	}, records[1])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleOrders()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "Vase", rows[1][2])
	assert.Equal(t, "30", rows[1][5])
	assert.Equal(t, "TRUE", rows[1][9])
}
