package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// normalizeHeader folds a header cell to the form used for alias matching:
// BOM stripped, trimmed, lower case, accents removed ("Preço" -> "preco").
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, utf8BOM)
	h = strings.ToLower(strings.TrimSpace(h))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		return h
	}
	return folded
}

// resolveColumns maps each canonical column to its index in header. Canonical
// columns with no matching alias are returned in missing, in canonical order.
func resolveColumns(header []string, aliases map[string][]string, order []string) (map[string]int, []string) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	found := make(map[string]int, len(order))
	var missing []string
	for _, canonical := range order {
		idx := -1
		for _, alias := range aliases[canonical] {
			if pos, ok := positions[normalizeHeader(alias)]; ok {
				idx = pos
				break
			}
		}
		if idx < 0 {
			missing = append(missing, canonical)
			continue
		}
		found[canonical] = idx
	}
	return found, missing
}

// ResolveColumn maps a canonical column name, or any alias of one, to the
// canonical name. Matching follows the header rules. Empty alias lists fall
// back to the loader defaults.
func ResolveColumn(name string, priceAliases, quantityAliases []string) (string, error) {
	if len(priceAliases) == 0 {
		priceAliases = defaultPriceCols
	}
	if len(quantityAliases) == 0 {
		quantityAliases = defaultQtyCols
	}
	return resolveColumn(name, map[string][]string{
		ColumnPrice:    priceAliases,
		ColumnQuantity: quantityAliases,
	})
}

func resolveColumn(name string, aliases map[string][]string) (string, error) {
	key := normalizeHeader(name)
	for _, canonical := range []string{ColumnPrice, ColumnQuantity} {
		if key == canonical {
			return canonical, nil
		}
		for _, alias := range aliases[canonical] {
			if key == normalizeHeader(alias) {
				return canonical, nil
			}
		}
	}
	return "", &SchemaError{Missing: []string{name}}
}
