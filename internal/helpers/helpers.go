package helpers

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidPageSize is returned by Paginate for a non-positive page size.
var ErrInvalidPageSize = errors.New("page size must be positive")

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
}

// FormatCurrency renders amount with two decimals, thousands separators and
// the symbol of currency. Unknown currencies are prefixed with their code.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = currency
	}

	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%s%s%s.%s", symbol, sign, b.String(), fracPart)
}

// GenerateSKU derives a short deterministic product code such as
// "ELE-1A2B3C" from a product name and category.
func GenerateSKU(name, category string) string {
	seed := strings.ToUpper(name) + "-" + strings.ToUpper(category)
	sum := md5.Sum([]byte(seed))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))[:6]

	prefix := []rune(strings.ToUpper(category))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return string(prefix) + "-" + digest
}

// Paginate returns the requested page of items together with the total
// number of pages. The page number is clamped into [1, totalPages]; an empty
// input has a single empty page.
func Paginate[T any](items []T, page, pageSize int) ([]T, int, error) {
	if pageSize <= 0 {
		return nil, 0, ErrInvalidPageSize
	}

	totalPages := 1
	if len(items) > 0 {
		totalPages = (len(items) + pageSize - 1) / pageSize
	}
	page = max(1, min(page, totalPages))

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	if start >= end {
		return []T{}, totalPages, nil
	}
	return items[start:end], totalPages, nil
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		chunks = append(chunks, items[i:min(i+size, len(items))])
	}
	return chunks
}

// DeepMerge returns a new map holding base overlaid with override. Nested
// maps present on both sides are merged recursively; any other value from
// override replaces the base value outright. Neither input is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		baseMap, baseIsMap := result[k].(map[string]any)
		overrideMap, overrideIsMap := v.(map[string]any)
		if baseIsMap && overrideIsMap {
			result[k] = DeepMerge(baseMap, overrideMap)
			continue
		}
		result[k] = v
	}
	return result
}

// GenerateID returns a dash-less random UUID, optionally prefixed.
func GenerateID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
