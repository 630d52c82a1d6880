package qt

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Submission is the photo of one day's devotional, reviewed by a teacher.
type Submission struct {
	ID         string     `json:"id"`
	ChurchID   string     `json:"church_id"`
	StudentID  string     `json:"student_id"`
	Date       core.Date  `json:"date"`
	PhotoKey   string     `json:"-"`
	PhotoURL   string     `json:"photo_url,omitempty"`
	Status     string     `json:"status"`
	Note       string     `json:"note"`
	ReviewerID string     `json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at"` // UTC
	CreatedAt  time.Time  `json:"created_at"`  // UTC
	UpdatedAt  time.Time  `json:"updated_at"`  // UTC
}

type QueryFilter struct {
	Status    string    `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Date      core.Date `query:"date"`
	StudentID string    `query:"student_id" validate:"omitempty,uuid"`
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.StudentID = core.CleanString(qf.StudentID)
	return validate.Struct(qf)
}

type Reject struct {
	Note string `json:"note" validate:"max=200"`
}

func (r *Reject) Validate(validate *validator.Validate) error {
	r.Note = core.CleanString(r.Note)
	return validate.Struct(r)
}

// PendingSummary is what the daily digest reports for a church.
type PendingSummary struct {
	Count  int       `db:"count"`
	Oldest core.Date `db:"oldest"`
}
