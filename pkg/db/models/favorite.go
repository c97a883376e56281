package models

import "time"

type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_favorites_pair"`
	PartID    uint      `gorm:"column:part_id;not null;uniqueIndex:idx_favorites_pair"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
