package model

import (
	"github.com/google/uuid"
	"time"
)

type Item struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *string   `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemFields is the full set of writable business fields. Writes go through
// this struct only, so nothing outside the allow-list can reach the store.
type ItemFields struct {
	Name        string
	Description *string
	Price       *float64
	Category    *string
}
