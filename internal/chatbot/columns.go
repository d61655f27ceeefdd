package chatbot

import (
	"sort"
	"strconv"
	"time"
)

// ColumnType is the semantic type detected for a result column, used by the
// frontend to pick a rendering.
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnDate        ColumnType = "date"
	ColumnCategorical ColumnType = "categorical"
)

// classifyThreshold is the fraction of sampled non-empty values that must
// parse as a type before the column is classified as that type.
const classifyThreshold = 0.8

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// DetectColumnTypes inspects the result rows and classifies each column.
// Numeric is checked before date so purely numeric IDs never classify as
// dates; anything under the threshold is categorical.
func DetectColumnTypes(rows []map[string]any) map[string]ColumnType {
	if len(rows) == 0 {
		return map[string]ColumnType{}
	}

	columns := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			columns[k] = true
		}
	}

	names := make([]string, 0, len(columns))
	for k := range columns {
		names = append(names, k)
	}
	sort.Strings(names)

	types := make(map[string]ColumnType, len(names))
	for _, name := range names {
		types[name] = classifyColumn(name, rows)
	}
	return types
}

func classifyColumn(name string, rows []map[string]any) ColumnType {
	var sampled, numeric, dates int
	for _, row := range rows {
		v, ok := row[name]
		if !ok || v == nil {
			continue
		}
		sampled++
		if isNumericValue(v) {
			numeric++
			continue
		}
		if s, ok := v.(string); ok && isDateString(s) {
			dates++
		}
	}
	if sampled == 0 {
		return ColumnCategorical
	}
	if float64(numeric)/float64(sampled) >= classifyThreshold {
		return ColumnNumeric
	}
	if float64(dates)/float64(sampled) >= classifyThreshold {
		return ColumnDate
	}
	return ColumnCategorical
}

func isNumericValue(v any) bool {
	switch t := v.(type) {
	case float64, float32, int, int64, int32:
		return true
	case string:
		_, err := strconv.ParseFloat(t, 64)
		return err == nil
	}
	return false
}

func isDateString(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
