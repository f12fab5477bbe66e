package reports

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// SupplierOrderRow is the extraction tool's output: one order line item joined
// with its supplier order reference and the original (pre-corruption) price
// carried over from the input restore file.
type SupplierOrderRow struct {
	OrderItemId      int64
	OrderId          string
	SupplierOrderId  string
	QuantitySold     int64
	OriginalPrice    decimal.NullDecimal
	SupplierPrice    decimal.NullDecimal
	SupplierTax      decimal.NullDecimal
	AmazonPrice      decimal.NullDecimal
	AmazonFee        decimal.NullDecimal
	SupplierShipping decimal.NullDecimal
	CustomerShipping decimal.NullDecimal
	Profit           decimal.NullDecimal
	Margin           decimal.NullDecimal
	Roi              decimal.NullDecimal
}

var supplierOrdersHeader = []string{
	"order_item_id", "order_id", "supplier_order_id", "quantity_sold",
	"original_price", "supplier_price", "supplier_tax",
	"amazon_price", "amazon_fee", "supplier_shipping", "customer_shipping",
	"profit", "margin", "roi",
}

// WriteSupplierOrders writes the extraction CSV, header first even when rows
// is empty.
func WriteSupplierOrders(path string, rows []SupplierOrderRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(supplierOrdersHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.OrderItemId, 10),
			r.OrderId,
			r.SupplierOrderId,
			strconv.FormatInt(r.QuantitySold, 10),
			NullableMoneyString(r.OriginalPrice),
			NullableMoneyString(r.SupplierPrice),
			NullableMoneyString(r.SupplierTax),
			NullableMoneyString(r.AmazonPrice),
			NullableMoneyString(r.AmazonFee),
			NullableMoneyString(r.SupplierShipping),
			NullableMoneyString(r.CustomerShipping),
			NullableMoneyString(r.Profit),
			NullableMoneyString(r.Margin),
			NullableMoneyString(r.Roi),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
