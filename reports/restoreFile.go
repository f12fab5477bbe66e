package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RestoreEntry is one row of a restore file: the pre-corruption supplier cost
// values for a single order line item, keyed by order_item_id.
type RestoreEntry struct {
	OrderItemId   int64 `validate:"required,gt=0"`
	OrderId       string
	QuantitySold  int64
	OriginalPrice decimal.NullDecimal
	OriginalTax   decimal.NullDecimal
}

// ReadRestoreFile reads a restore CSV. Column order is free; columns are
// resolved by header name and only order_item_id is mandatory. The source
// files were produced by tooling that wrote the string tokens "None" and
// "NULL" for absent values, so those parse as null, not as literal text.
func ReadRestoreFile(path string) ([]RestoreEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idIdx, ok := col["order_item_id"]
	if !ok {
		return nil, fmt.Errorf("restore file %s has no order_item_id column", path)
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []RestoreEntry
	line := 1
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		id, err := strconv.ParseInt(field(row, "order_item_id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad order_item_id %q", line, row[idIdx])
		}

		qty, _ := strconv.ParseInt(field(row, "quantity_sold"), 10, 64)

		entries = append(entries, RestoreEntry{
			OrderItemId:   id,
			OrderId:       field(row, "order_id"),
			QuantitySold:  qty,
			OriginalPrice: parseNullableMoney(field(row, "original_price")),
			OriginalTax:   parseNullableMoney(field(row, "original_tax")),
		})
	}
	return entries, nil
}

func parseNullableMoney(s string) decimal.NullDecimal {
	if s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
