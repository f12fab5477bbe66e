package finance

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Order statuses with special profit handling. Comparison is case-insensitive;
// every other status goes through the regular formula.
const (
	StatusCanceled = "canceled"
	StatusRefunded = "refunded"
)

// ErrNegativeRefundInput is returned when a refunded order carries a negative
// amazon_fee or customer_shipping. The refund penalty formula would turn those
// into a positive profit, which is always bad data, never a real gain.
var ErrNegativeRefundInput = errors.New("refunded order has negative fee or shipping")

var (
	refundedFeeShare = decimal.NewFromFloat(0.20)
	hundred          = decimal.NewFromInt(100)
)

// Inputs is the order-record shape the calculator consumes. All money fields
// are nullable; NULL means 0.00 for arithmetic purposes.
type Inputs struct {
	OrderStatus      string
	AmazonPrice      decimal.NullDecimal
	AmazonFee        decimal.NullDecimal
	SupplierPrice    decimal.NullDecimal // per unit
	SupplierTax      decimal.NullDecimal // per unit
	SupplierShipping decimal.NullDecimal // order total, never multiplied by quantity
	CustomerShipping decimal.NullDecimal // order total, never multiplied by quantity
	QuantitySold     int64
}

// Metrics are the three derived financial fields. Margin and Roi are NULL
// (not zero) when their denominator is not positive; callers must keep that
// distinction on every output surface.
type Metrics struct {
	Profit decimal.Decimal
	Margin decimal.NullDecimal
	Roi    decimal.NullDecimal
}

// Calculate computes profit, margin and ROI for one order line item.
//
// Canceled orders have zero profit regardless of their amounts. Refunded
// orders lose 20% of the marketplace fee plus the whole customer shipping
// cost. Everything else uses:
//
//	profit = amazon_price - supplier_price*qty - amazon_fee
//	       - supplier_tax*qty - supplier_shipping - customer_shipping
//
// Both shipping fields are order-level totals. An earlier version multiplied
// them by quantity_sold; that was a bug and must not come back.
func Calculate(in Inputs) (Metrics, error) {
	price := ToMoney(in.AmazonPrice)
	fee := ToMoney(in.AmazonFee)
	supplierPrice := ToMoney(in.SupplierPrice)
	supplierTax := ToMoney(in.SupplierTax)
	supplierShipping := ToMoney(in.SupplierShipping)
	customerShipping := ToMoney(in.CustomerShipping)
	qty := decimal.NewFromInt(in.QuantitySold)

	var profit decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(in.OrderStatus)) {
	case StatusCanceled:
		profit = Zero
	case StatusRefunded:
		if fee.IsNegative() || customerShipping.IsNegative() {
			return Metrics{}, ErrNegativeRefundInput
		}
		profit = RoundMoney(fee.Mul(refundedFeeShare).Add(customerShipping).Neg())
	default:
		profit = RoundMoney(price.
			Sub(supplierPrice.Mul(qty)).
			Sub(fee).
			Sub(supplierTax.Mul(qty)).
			Sub(supplierShipping).
			Sub(customerShipping))
	}

	return deriveRatios(profit, price, totalCost(supplierPrice, supplierTax, supplierShipping, customerShipping, qty)), nil
}

// SimpleProfit is the restore-path variant: it recomputes the three fields
// from restored supplier costs without the cancel/refund special cases.
func SimpleProfit(in Inputs) Metrics {
	price := ToMoney(in.AmazonPrice)
	fee := ToMoney(in.AmazonFee)
	supplierPrice := ToMoney(in.SupplierPrice)
	supplierTax := ToMoney(in.SupplierTax)
	supplierShipping := ToMoney(in.SupplierShipping)
	customerShipping := ToMoney(in.CustomerShipping)
	qty := decimal.NewFromInt(in.QuantitySold)

	profit := RoundMoney(price.
		Sub(supplierPrice.Mul(qty)).
		Sub(fee).
		Sub(supplierTax.Mul(qty)).
		Sub(supplierShipping).
		Sub(customerShipping))

	return deriveRatios(profit, price, totalCost(supplierPrice, supplierTax, supplierShipping, customerShipping, qty))
}

func totalCost(supplierPrice, supplierTax, supplierShipping, customerShipping, qty decimal.Decimal) decimal.Decimal {
	return supplierPrice.Mul(qty).
		Add(supplierTax.Mul(qty)).
		Add(supplierShipping).
		Add(customerShipping)
}

func deriveRatios(profit, price, cost decimal.Decimal) Metrics {
	m := Metrics{Profit: profit}
	if price.IsPositive() {
		m.Margin = decimal.NewNullDecimal(RoundPercent(profit.Div(price).Mul(hundred)))
	}
	if cost.IsPositive() {
		m.Roi = decimal.NewNullDecimal(RoundPercent(profit.Div(cost).Mul(hundred)))
	}
	return m
}
