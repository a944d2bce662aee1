package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery address owned by exactly one user. Orders reference
// addresses by id rather than snapshotting them, so edits show through on
// historical orders when the row is refetched.
type Address struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name            string    `gorm:"column:name;not null"`
	HouseNo         string    `gorm:"column:house_no;not null"`
	Landmark        *string   `gorm:"column:landmark"`
	City            string    `gorm:"column:city;not null"`
	District        string    `gorm:"column:district;not null"`
	State           string    `gorm:"column:state;not null"`
	Pincode         string    `gorm:"column:pincode;not null"`
	PrimaryMobile   string    `gorm:"column:primary_mobile;not null"`
	SecondaryMobile *string   `gorm:"column:secondary_mobile"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Address) TableName() string { return "user_addresses" }
