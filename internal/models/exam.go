package models

import (
	"time"

	"github.com/talim-board/admin-api/pkg/money"
)

// ExamStatus is the lifecycle state of a board examination.
type ExamStatus string

const (
	ExamStatusPending     ExamStatus = "pending"
	ExamStatusPreparatory ExamStatus = "preparatory"
	ExamStatusOngoing     ExamStatus = "ongoing"
	ExamStatusCompleted   ExamStatus = "completed"
	ExamStatusCancelled   ExamStatus = "cancelled"
)

// Valid reports whether the status is a known lifecycle state.
func (s ExamStatus) Valid() bool {
	switch s {
	case ExamStatusPending, ExamStatusPreparatory, ExamStatusOngoing, ExamStatusCompleted, ExamStatusCancelled:
		return true
	}
	return false
}

// ExamFieldGroup identifies a set of exam fields sharing one edit-lock rule.
type ExamFieldGroup string

const (
	ExamFieldGroupName             ExamFieldGroup = "name"
	ExamFieldGroupRegistrationInfo ExamFieldGroup = "registrationInfo"
	ExamFieldGroupFeeSchedule      ExamFieldGroup = "feeSchedule"
)

// CanEdit decides whether the given field group may be modified while the
// exam is in this status. Registration info and the fee schedule freeze as
// soon as the exam leaves pending; the name additionally stays editable in
// cancelled.
func (s ExamStatus) CanEdit(group ExamFieldGroup) bool {
	switch group {
	case ExamFieldGroupName:
		return s == ExamStatusPending || s == ExamStatusCancelled
	case ExamFieldGroupRegistrationInfo, ExamFieldGroupFeeSchedule:
		return s == ExamStatusPending
	}
	return false
}

// AllowedTransitions returns the statuses reachable from this one.
// Completed and cancelled are terminal and only allow a no-op
// resubmission of themselves.
func (s ExamStatus) AllowedTransitions() []ExamStatus {
	switch s {
	case ExamStatusPending:
		return []ExamStatus{ExamStatusPreparatory, ExamStatusCancelled}
	case ExamStatusPreparatory:
		return []ExamStatus{ExamStatusOngoing, ExamStatusCancelled}
	case ExamStatusOngoing:
		return []ExamStatus{ExamStatusCompleted, ExamStatusCancelled}
	case ExamStatusCompleted, ExamStatusCancelled:
		return []ExamStatus{s}
	}
	return nil
}

// CanTransition reports whether moving to the target status is legal.
func (s ExamStatus) CanTransition(target ExamStatus) bool {
	for _, allowed := range s.AllowedTransitions() {
		if allowed == target {
			return true
		}
	}
	return false
}

// Exam represents a board examination session.
type Exam struct {
	ID                    string     `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Status                ExamStatus `db:"status" json:"status"`
	RegistrationStartDate time.Time  `db:"registration_start_date" json:"registration_start_date"`
	RegistrationEndDate   time.Time  `db:"registration_end_date" json:"registration_end_date"`
	LateRegistrationDate  time.Time  `db:"late_registration_date" json:"late_registration_date"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`

	FeeDetails []ExamFeeDetail `db:"-" json:"fee_details,omitempty"`
}

// ExamFeeDetail holds per-marhala roll numbering and fees for one exam.
type ExamFeeDetail struct {
	ID                 string       `db:"id" json:"id"`
	ExamID             string       `db:"exam_id" json:"exam_id"`
	MarhalaID          string       `db:"marhala_id" json:"marhala_id"`
	StartingRollNumber int          `db:"starting_roll_number" json:"starting_roll_number"`
	RegularFee         money.Amount `db:"regular_fee" json:"regular_fee"`
	RegularLateFee     money.Amount `db:"regular_late_fee" json:"regular_late_fee"`
	IrregularFee       money.Amount `db:"irregular_fee" json:"irregular_fee"`
	IrregularLateFee   money.Amount `db:"irregular_late_fee" json:"irregular_late_fee"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// ExamFilter captures listing options for exams.
type ExamFilter struct {
	Search    string
	IsActive  *bool
	Status    *ExamStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
