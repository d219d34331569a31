package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/kilo/kilo_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is owned by the order-management screens; this service only reads it.
type Order struct {
	ID            string              `gorm:"primaryKey;size:36" json:"id"`
	PoNumber      string              `gorm:"size:100;index" json:"po_number"`
	Status        OrderStatus         `gorm:"size:30;not null;default:draft" json:"status"`
	ProductName   string              `gorm:"size:255" json:"product_name"`
	Variety       string              `gorm:"size:255" json:"variety"`
	TotalQuantity *int64              `json:"total_quantity"`
	TotalAmount   decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"total_amount"`
	Currency      string              `gorm:"size:3" json:"currency"`
	SupplierId    string              `gorm:"size:36;index" json:"supplier_id"`
	ImporterId    string              `gorm:"size:36;index" json:"importer_id"`
	BrokerId      *string             `gorm:"size:36;index" json:"broker_id"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// ReconcileValues is the order side of a validation. NULL columns and blank
// product names are absent, never zero.
func (o Order) ReconcileValues() reconcile.OrderValues {
	var v reconcile.OrderValues
	if o.TotalAmount.Valid {
		v.TotalAmount = reconcile.Some(o.TotalAmount.Decimal)
	}
	if name := strings.TrimSpace(o.ProductName); name != "" {
		v.ProductName = reconcile.Some(name)
	}
	if o.TotalQuantity != nil {
		v.TotalQuantity = reconcile.Some(decimal.NewFromInt(*o.TotalQuantity))
	}
	return v
}

func GetOrder(ctx context.Context, id string) (*Order, error) {
	return getOrder(config.GetDB().WithContext(ctx), id)
}

func getOrder(db *gorm.DB, id string) (*Order, error) {
	var order Order
	if err := db.Where("id = ?", id).Take(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &order, nil
}
