package reports

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// DiffHeader is the fixed column order of the profit comparison report.
var DiffHeader = []string{
	"order_id", "order_item_id", "existing_profit", "calculated_profit", "difference",
	"existing_margin", "calculated_margin", "existing_roi", "calculated_roi",
}

// DiffRecord is one divergent order: the stored derived values next to the
// recalculated ones, plus the signed profit difference.
type DiffRecord struct {
	OrderId          string
	OrderItemId      int64
	ExistingProfit   decimal.Decimal
	CalculatedProfit decimal.Decimal
	Difference       decimal.Decimal
	ExistingMargin   decimal.NullDecimal
	CalculatedMargin decimal.NullDecimal
	ExistingRoi      decimal.NullDecimal
	CalculatedRoi    decimal.NullDecimal
}

// DiffWriter appends divergence rows to a CSV audit file. The file is
// truncated and the header written as soon as the writer is opened, and every
// row is flushed on append, so an interrupted run still leaves a valid,
// readable artifact containing everything processed so far.
type DiffWriter struct {
	f *os.File
	w *csv.Writer
}

func NewDiffWriter(path string) (*DiffWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(DiffHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}
	return &DiffWriter{f: f, w: w}, nil
}

func (dw *DiffWriter) Append(r DiffRecord) error {
	row := []string{
		r.OrderId,
		strconv.FormatInt(r.OrderItemId, 10),
		r.ExistingProfit.StringFixed(2),
		r.CalculatedProfit.StringFixed(2),
		r.Difference.StringFixed(2),
		NullableMoneyString(r.ExistingMargin),
		NullableMoneyString(r.CalculatedMargin),
		NullableMoneyString(r.ExistingRoi),
		NullableMoneyString(r.CalculatedRoi),
	}
	if err := dw.w.Write(row); err != nil {
		return err
	}
	dw.w.Flush()
	return dw.w.Error()
}

func (dw *DiffWriter) Close() error {
	dw.w.Flush()
	werr := dw.w.Error()
	cerr := dw.f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// NullableMoneyString serializes a nullable amount. NULL must stay
// distinguishable from 0 on every output surface, so it becomes the literal
// token "NULL", never "0.00".
func NullableMoneyString(nd decimal.NullDecimal) string {
	if !nd.Valid {
		return "NULL"
	}
	return nd.Decimal.StringFixed(2)
}
