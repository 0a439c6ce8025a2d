package models

import "time"

// PaymentMethodType tags the teacher payout variant.
type PaymentMethodType string

const (
	PaymentMethodMobile PaymentMethodType = "mobile"
	PaymentMethodBank   PaymentMethodType = "bank"
)

// MobileWalletPayout is the mobile-wallet payout variant.
type MobileWalletPayout struct {
	Provider      string `json:"provider"`
	AccountNumber string `json:"account_number"`
}

// BankPayout is the bank-account payout variant.
type BankPayout struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	BranchName    string `json:"branch_name"`
}

// PaymentMethod is a tagged union: exactly one variant is set, matching
// the Method tag. Stored flattened in the teachers table; the repository
// maps rows to and from this shape.
type PaymentMethod struct {
	Method PaymentMethodType   `json:"method"`
	Mobile *MobileWalletPayout `json:"mobile,omitempty"`
	Bank   *BankPayout         `json:"bank,omitempty"`
}

// Teacher is an instructor registered with the board. Mumtahin (examiner
// eligibility) is not a column here but a separate designation row; the
// derived flag is populated on reads.
type Teacher struct {
	ID                       string        `json:"id"`
	NameBangla               string        `json:"name_bangla"`
	FatherName               string        `json:"father_name"`
	Phone                    string        `json:"phone"`
	NID                      string        `json:"nid"`
	DateOfBirth              time.Time     `json:"date_of_birth"`
	Address                  string        `json:"address"`
	EducationalQualification string        `json:"educational_qualification"`
	KitabiQualification      []string      `json:"kitabi_qualification"`
	Payment                  PaymentMethod `json:"payment"`
	PhotoPath                *string       `json:"photo_path,omitempty"`
	Mumtahin                 bool          `json:"mumtahin"`
	Active                   bool          `json:"active"`
	CreatedAt                time.Time     `json:"created_at"`
	UpdatedAt                time.Time     `json:"updated_at"`
}

// TeacherFilter captures listing options for teachers.
type TeacherFilter struct {
	Search       string
	Active       *bool
	MumtahinOnly bool
	MarhalaID    string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
