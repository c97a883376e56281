package models

import "time"

// Client is a customer of a business, managed by its PM.
type Client struct {
	ID           uint      `gorm:"primaryKey"`
	BusinessID   uint      `gorm:"column:business_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	ContactName  *string   `gorm:"column:contact_name"`
	ContactEmail *string   `gorm:"column:contact_email"`
	ContactPhone *string   `gorm:"column:contact_phone"`
	Address      *string   `gorm:"column:address"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
