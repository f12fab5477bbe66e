package models

import (
	"time"

	"github.com/sellerdesk/orders-backoffice/finance"
	"github.com/shopspring/decimal"
)

// Order is one row per sold line item. order_id is the marketplace order
// identifier and is many-to-one with line items; order_item_id is the unique
// key every update targets.
//
// supplier_price and supplier_tax are per-unit amounts. supplier_shipping and
// customer_shipping are order-level totals entered manually and must never be
// multiplied by quantity_sold.
type Order struct {
	OrderItemId        int64               `gorm:"primaryKey;autoIncrement;column:order_item_id" json:"order_item_id"`
	OrderId            string              `gorm:"size:50;index;not null" json:"order_id"`
	OrderStatus        string              `gorm:"size:30" json:"order_status"`
	FulfillmentChannel string              `gorm:"size:10" json:"fulfillment_channel"`
	PurchaseDate       *time.Time          `json:"purchase_date"`
	LatestShipDate     *time.Time          `json:"latest_ship_date"`
	Title              string              `gorm:"size:500" json:"title"`
	Sku                string              `gorm:"size:100" json:"sku"`
	Asin               string              `gorm:"size:20;index" json:"asin"`
	AmazonPrice        decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"amazon_price"`
	AmazonFee          decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"amazon_fee"`
	QuantitySold       int64               `gorm:"default:0" json:"quantity_sold"`
	SupplierOrderId    string              `gorm:"size:50" json:"supplier_order_id"`
	SupplierPrice      decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"supplier_price"`
	SupplierTax        decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"supplier_tax"`
	SupplierShipping   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"supplier_shipping"`
	CustomerShipping   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"customer_shipping"`
	Profit             decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"profit"`
	Margin             decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"margin"`
	Roi                decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"roi"`
	CreatedAt          time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// FinanceInputs maps the row to the calculator's input shape.
func (o Order) FinanceInputs() finance.Inputs {
	return finance.Inputs{
		OrderStatus:      o.OrderStatus,
		AmazonPrice:      o.AmazonPrice,
		AmazonFee:        o.AmazonFee,
		SupplierPrice:    o.SupplierPrice,
		SupplierTax:      o.SupplierTax,
		SupplierShipping: o.SupplierShipping,
		CustomerShipping: o.CustomerShipping,
		QuantitySold:     o.QuantitySold,
	}
}

// AmazonCredential holds the SP-API app credentials. The newest row wins;
// rotating credentials means inserting a new row, not editing in place.
type AmazonCredential struct {
	ID           int       `gorm:"primary_key" json:"id"`
	ClientId     string    `gorm:"size:255;not null" json:"client_id"`
	ClientSecret string    `gorm:"size:255;not null" json:"client_secret"`
	RefreshToken string    `gorm:"size:512;not null" json:"refresh_token"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AmazonCredential) TableName() string {
	return "amazon_credentials"
}
