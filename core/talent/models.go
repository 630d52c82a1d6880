package talent

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

// Kinds of ledger entries
const (
	KindAttendance = "attendance"
	KindRecitation = "recitation"
	KindQT         = "qt"
	KindManual     = "manual"
	KindGame       = "game"
)

// Entry is one append-only ledger line. A student's balance is the sum of their entries.
type Entry struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id"`
	StudentID string    `json:"student_id"`
	Amount    int       `json:"amount"`
	Kind      string    `json:"kind"`
	RefID     string    `json:"ref_id,omitempty"`
	Note      string    `json:"note"`
	TeacherID string    `json:"teacher_id,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// StudentBalance is the raw leaderboard input for one active student.
type StudentBalance struct {
	StudentID string  `json:"student_id" db:"student_id"`
	Name      string  `json:"name" db:"name"`
	TeamID    *string `json:"team_id" db:"team_id"`
	Balance   int     `json:"balance" db:"balance"`
}

// Standing is a leaderboard row.
type Standing struct {
	Rank int `json:"rank"`
	StudentBalance
}

// Grant is a manual award (positive amount) or deduction (negative amount).
type Grant struct {
	Amount int    `json:"amount" validate:"required,min=-1000,max=1000"`
	Note   string `json:"note" validate:"max=200"`
}

func (g *Grant) Validate(validate *validator.Validate) error {
	g.Note = core.CleanString(g.Note)
	return validate.Struct(g)
}

// BulkGrant applies the same Grant to several students.
type BulkGrant struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=500,dive,uuid"`
	Amount     int      `json:"amount" validate:"required,min=-1000,max=1000"`
	Note       string   `json:"note" validate:"max=200"`
}

func (bg *BulkGrant) Validate(validate *validator.Validate) error {
	bg.StudentIDs = core.UniqueStrings(bg.StudentIDs)
	bg.Note = core.CleanString(bg.Note)
	return validate.Struct(bg)
}
