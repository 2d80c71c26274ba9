package models

import "time"

// Subject represents a taught discipline, grouped by category for display
// (e.g. "Lettres", "Sciences").
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
