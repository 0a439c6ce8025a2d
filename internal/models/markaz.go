package models

import "time"

// Markaz is a physical exam center hosted at a madrasa. A madrasa may host
// at most one markaz; the numeric code is derived from the host madrasa's
// own code.
type Markaz struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Code           int       `db:"code" json:"code"`
	HostMadrasaID  string    `db:"host_madrasa_id" json:"host_madrasa_id"`
	ZoneID         string    `db:"zone_id" json:"zone_id"`
	ExamineeLimit  int       `db:"examinee_limit" json:"examinee_limit"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	HostMadrasaName string `db:"host_madrasa_name" json:"host_madrasa_name,omitempty"`
	ZoneName        string `db:"zone_name" json:"zone_name,omitempty"`
}

// MarkazFilter captures listing options for markazes.
type MarkazFilter struct {
	Search    string
	ZoneID    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
