package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/saiembroidery/storefront-backend/pkg/enums"
)

// Order is one purchased cart line. A checkout with N distinct designs
// produces N order rows that share nothing except user, address, and
// created_at proximity. Rows are immutable after insert apart from
// work_status, which moves pending -> successful exactly once.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomOrderID string               `gorm:"column:custom_order_id;not null;uniqueIndex"`
	UserID        uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID     uuid.UUID            `gorm:"column:address_id;type:uuid;not null"`
	DesignNo      string               `gorm:"column:design_no;not null"`
	Quantity      int                  `gorm:"column:quantity;not null"`
	PricePaise    int64                `gorm:"column:price_paise;not null"`
	PaymentStatus enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null"`
	WorkStatus    enums.WorkStatus     `gorm:"column:work_status;type:text;not null;default:'pending'"`
	Category      enums.DesignCategory `gorm:"column:category;type:text;not null"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }
