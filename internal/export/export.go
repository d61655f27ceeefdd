// Package export renders item listings into downloadable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"asset-inventory-backend/internal/model"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

// ParseFormat maps a query-string value onto a known format. CSV is the
// default when the value is empty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTSV:
		return FormatTSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatTSV:
		return "text/tab-separated-values"
	default:
		return "text/csv"
	}
}

// Filename returns a timestamped download name for the format.
func (f Format) Filename(at time.Time) string {
	return fmt.Sprintf("inventory_%s.%s", at.Format("20060102_150405"), string(f))
}

// columns is the fixed export column order. Changing it breaks downstream
// spreadsheet imports, so append only.
var columns = []string{
	"inventory_number",
	"name",
	"category",
	"vendor",
	"location",
	"status",
	"condition",
	"current_holder",
	"current_value",
	"warranty_end",
	"created_at",
}

// Items writes the item list to w in the requested format. Category and
// CurrentHolder associations are expected to be preloaded.
func Items(w io.Writer, items []model.Item, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, items)
	case FormatTSV:
		return writeDelimited(w, items, '\t')
	default:
		return writeDelimited(w, items, ',')
	}
}

func writeDelimited(w io.Writer, items []model.Item, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(columns); err != nil {
		return err
	}
	for i := range items {
		if err := cw.Write(itemRow(&items[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, items []model.Item) error {
	rows := make([]map[string]string, 0, len(items))
	for i := range items {
		row := itemRow(&items[i])
		m := make(map[string]string, len(columns))
		for j, col := range columns {
			m[col] = row[j]
		}
		rows = append(rows, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func itemRow(item *model.Item) []string {
	holder := ""
	if item.CurrentHolder != nil {
		holder = item.CurrentHolder.Username
	}
	warranty := ""
	if item.WarrantyEnd != nil {
		warranty = item.WarrantyEnd.Format("2006-01-02")
	}
	return []string{
		item.InventoryNumber,
		item.Name,
		item.Category.Name,
		item.Vendor,
		item.Location,
		string(item.Status),
		string(item.ConditionStatus),
		holder,
		strconv.FormatFloat(item.CurrentValue, 'f', 2, 64),
		warranty,
		item.CreatedAt.Format("2006-01-02"),
	}
}
