package models

import "time"

// FAQ is a published question/answer pair. Deletion is a soft deactivation
// so the record can be restored.
type FAQ struct {
	ID           string    `db:"id" json:"id"`
	Question     string    `db:"question" json:"question"`
	Answer       string    `db:"answer" json:"answer"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FAQFilter captures listing options for FAQs.
type FAQFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortOrder string
}
