package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one design in a user's cart. The unique (user_id, design_id)
// index backs the merge-on-add behavior: a second add for the same design
// bumps the existing line's quantity instead of inserting a sibling row.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_design"`
	DesignID  int64     `gorm:"column:design_id;not null;uniqueIndex:idx_cart_user_design"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CartLine) TableName() string { return "cart_lines" }
