package models

import "time"

// Marhala is an education level. Its kitab set defines the textbooks
// examined at that level.
type Marhala struct {
	ID            string    `db:"id" json:"id"`
	NameBangla    string    `db:"name_bangla" json:"name_bangla"`
	NameArabic    string    `db:"name_arabic" json:"name_arabic"`
	SequenceOrder int       `db:"sequence_order" json:"sequence_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	Kitabs []Kitab `db:"-" json:"kitabs,omitempty"`
}

// MarhalaFilter captures listing options for marhalas.
type MarhalaFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortOrder string
}
