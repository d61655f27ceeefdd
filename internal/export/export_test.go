package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-inventory-backend/internal/model"
)

func sampleItems() []model.Item {
	warranty := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	holder := model.User{ID: 5, Username: "jdoe"}
	return []model.Item{
		{
			InventoryNumber: "LAP-0001",
			Name:            "ThinkPad X1",
			Category:        model.Category{Name: "Laptops"},
			Vendor:          "Lenovo",
			Location:        "Room 204",
			Status:          model.ItemLent,
			ConditionStatus: model.ConditionGood,
			CurrentHolder:   &holder,
			CurrentValue:    899.5,
			WarrantyEnd:     &warranty,
			CreatedAt:       time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			InventoryNumber: "PRJ-0002",
			Name:            "Epson Projector",
			Category:        model.Category{Name: "Projectors"},
			Status:          model.ItemAvailable,
			ConditionStatus: model.ConditionExcellent,
			CurrentValue:    450,
			CreatedAt:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"tsv", FormatTSV, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestItems_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Items(&buf, sampleItems(), FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"inventory_number", "name", "category", "vendor", "location",
		"status", "condition", "current_holder", "current_value",
		"warranty_end", "created_at",
	}, records[0])

	assert.Equal(t, []string{
		"LAP-0001", "ThinkPad X1", "Laptops", "Lenovo", "Room 204",
		"lent", "good", "jdoe", "899.50", "2027-06-30", "2025-01-15",
	}, records[1])

	// Optional fields render as empty cells, not placeholders.
	assert.Equal(t, "", records[2][7])
	assert.Equal(t, "", records[2][9])
}

func TestItems_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Items(&buf, sampleItems(), FormatTSV))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "LAP-0001\tThinkPad X1\t"))
}

func TestItems_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Items(&buf, sampleItems(), FormatJSON))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "LAP-0001", rows[0]["inventory_number"])
	assert.Equal(t, "jdoe", rows[0]["current_holder"])
	assert.Equal(t, "available", rows[1]["status"])
}

func TestFormatMetadata(t *testing.T) {
	at := time.Date(2026, 2, 3, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "inventory_20260203_143005.csv", FormatCSV.Filename(at))
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/tab-separated-values", FormatTSV.ContentType())
}
