package models

import "time"

// Base contains common columns for all tables. ID is an auto-increment
// surrogate key, so ordering by it yields insertion order.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
