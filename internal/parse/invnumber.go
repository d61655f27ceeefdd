package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var invRe = regexp.MustCompile(`^([A-Z]{2,6})-(\d{4,6})$`)

// InventoryNumber holds the structured parts of an item's inventory number,
// e.g. "LAP-0042" -> prefix "LAP", sequence 42.
type InventoryNumber struct {
	Prefix string
	Seq    int
}

// ParseInventoryNumber validates and decomposes a raw inventory number.
func ParseInventoryNumber(raw string) (InventoryNumber, error) {
	s := strings.TrimSpace(strings.ToUpper(raw))
	m := invRe.FindStringSubmatch(s)
	if m == nil {
		return InventoryNumber{}, fmt.Errorf("inventory number %q does not match PREFIX-NNNN", raw)
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil || seq <= 0 {
		return InventoryNumber{}, fmt.Errorf("inventory number %q has invalid sequence", raw)
	}
	return InventoryNumber{Prefix: m[1], Seq: seq}, nil
}

// FormatInventoryNumber renders a prefix and sequence in canonical form.
func FormatInventoryNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", strings.ToUpper(prefix), seq)
}

// CategoryPrefix derives a stable inventory-number prefix from a category
// name: the first three letters, padded with 'X' for very short names.
func CategoryPrefix(categoryName string) string {
	var letters []rune
	for _, r := range categoryName {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			letters = append(letters, unicode.ToUpper(r))
		}
		if len(letters) == 3 {
			break
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}
