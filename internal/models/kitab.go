package models

import "time"

// Kitab is a textbook referenced by marhalas and teacher qualifications.
// The code is assigned sequentially by the system and never changes.
type Kitab struct {
	ID         string    `db:"id" json:"id"`
	Code       int       `db:"code" json:"code"`
	NameBangla string    `db:"name_bangla" json:"name_bangla"`
	NameArabic string    `db:"name_arabic" json:"name_arabic"`
	FullMarks  int       `db:"full_marks" json:"full_marks"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// KitabFilter captures listing options for kitabs.
type KitabFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
