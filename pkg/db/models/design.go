package models

import (
	"time"

	"github.com/saiembroidery/storefront-backend/pkg/enums"
)

// Design is a catalog row. This service only ever reads designs; the admin
// tooling that writes them lives outside this codebase.
type Design struct {
	ID           int64                `gorm:"column:id;primaryKey;autoIncrement"`
	DesignNo     string               `gorm:"column:design_no;not null;uniqueIndex"`
	MainImageURL *string              `gorm:"column:main_image_url"`
	PricePaise   int64                `gorm:"column:price_paise;not null"`
	Category     enums.DesignCategory `gorm:"column:category;type:text;not null"`
	InStock      bool                 `gorm:"column:in_stock;not null;default:true"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Design) TableName() string { return "designs" }
