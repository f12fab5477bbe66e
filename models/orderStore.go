package models

import (
	"context"
	"errors"

	"github.com/sellerdesk/orders-backoffice/finance"
	"github.com/sellerdesk/orders-backoffice/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStore is the gorm-backed access layer for the orders table. The
// reconciliation and restore workflows only ever read rows and overwrite a
// fixed set of columns; they never create or delete order rows.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// FetchPage returns up to limit orders starting at offset, ordered by
// order_item_id so repeated scans see a stable sequence.
func (s *OrderStore) FetchPage(ctx context.Context, offset, limit int) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Order("order_item_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetByItemID returns utils.ErrOrderNotFound when the row does not exist,
// so callers can tell "no rows" apart from a store failure.
func (s *OrderStore) GetByItemID(ctx context.Context, orderItemId int64) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemId).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateFinancials overwrites only the three derived columns. NULL margin/roi
// are written as SQL NULL, never as 0.
func (s *OrderStore) UpdateFinancials(ctx context.Context, orderItemId int64, m finance.Metrics) error {
	return s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_item_id = ?", orderItemId).
		Updates(map[string]interface{}{
			"profit": m.Profit,
			"margin": m.Margin,
			"roi":    m.Roi,
		}).Error
}

// UpdateSupplierCosts restores the two per-unit supplier cost columns.
func (s *OrderStore) UpdateSupplierCosts(ctx context.Context, orderItemId int64, price, tax decimal.NullDecimal) error {
	return s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_item_id = ?", orderItemId).
		Updates(map[string]interface{}{
			"supplier_price": price,
			"supplier_tax":   tax,
		}).Error
}

func (s *OrderStore) FetchByStatus(ctx context.Context, status string) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Where("order_status = ?", status).
		Order("order_item_id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) ExistsByOrderID(ctx context.Context, orderId string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_id = ?", orderId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *OrderStore) Insert(ctx context.Context, order *Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// StatusByOrderID returns the stored status and fee of the first line item of
// an order; the ingest workflow uses it to gate status transitions.
func (s *OrderStore) StatusByOrderID(ctx context.Context, orderId string) (string, decimal.NullDecimal, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Select("order_status", "amazon_fee").
		Where("order_id = ?", orderId).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", decimal.NullDecimal{}, utils.ErrOrderNotFound
		}
		return "", decimal.NullDecimal{}, err
	}
	return order.OrderStatus, order.AmazonFee, nil
}

// UpdateStatus moves every line item of an order to the new status.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderId string, status string) error {
	return s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_id = ?", orderId).
		Update("order_status", status).Error
}

// UpdateFees backfills marketplace fee and customer shipping for one line
// item, matched by order_id + asin the way the ingest feed addresses items.
func (s *OrderStore) UpdateFees(ctx context.Context, orderId, asin string, fee, shipping decimal.NullDecimal) error {
	return s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_id = ? AND asin = ?", orderId, asin).
		Updates(map[string]interface{}{
			"amazon_fee":        fee,
			"customer_shipping": shipping,
		}).Error
}

// LatestAmazonCredential returns the newest SP-API credential row.
func LatestAmazonCredential(ctx context.Context, db *gorm.DB) (*AmazonCredential, error) {
	var cred AmazonCredential
	err := db.WithContext(ctx).
		Order("updated_at DESC").
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("no amazon credentials found in database")
		}
		return nil, err
	}
	return &cred, nil
}
