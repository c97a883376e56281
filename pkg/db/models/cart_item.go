package models

import "time"

// CartItem belongs to a user or, before login, to a guest id.
type CartItem struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    *uint     `gorm:"column:user_id;index"`
	GuestID   *string   `gorm:"column:guest_id;index"`
	PartID    uint      `gorm:"column:part_id;not null"`
	JobID     *uint     `gorm:"column:job_id"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
