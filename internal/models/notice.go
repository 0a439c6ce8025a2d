package models

import "time"

// Notice is a published board announcement. Deleting a notice removes the
// row outright.
type Notice struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Body           string    `db:"body" json:"body"`
	AttachmentPath *string   `db:"attachment_path" json:"attachment_path,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// NoticeFilter captures listing options for notices.
type NoticeFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortOrder string
}
