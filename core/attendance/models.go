package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

// Record is the attendance and recitation check of one student on one service day.
type Record struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id"`
	StudentID string    `json:"student_id"`
	Date      core.Date `json:"date"`
	Present   bool      `json:"present"`
	Recited   bool      `json:"recited"`
	TeacherID string    `json:"teacher_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SheetRow is one line of the attendance sheet of a day.
// RecordID is empty when nothing has been checked for the student yet.
type SheetRow struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	TeamID      *string `json:"team_id"`
	RecordID    string  `json:"record_id,omitempty"`
	Present     bool    `json:"present"`
	Recited     bool    `json:"recited"`
}

// Mark sets the attendance and/or recitation of a student on a day. Nil fields are left unchanged.
type Mark struct {
	Date    core.Date `json:"date"`
	Present *bool     `json:"present"`
	Recited *bool     `json:"recited" validate:"required_without=Present"`
}

func (m *Mark) Validate(validate *validator.Validate) error {
	if m.Date.IsZero() {
		m.Date = core.Today()
	}
	if err := validate.Struct(m); err != nil {
		return err
	}
	if m.Date.After(core.Today()) {
		return core.NewValidationError(ErrFutureDate, core.FieldError{Field: "date", Error: ErrFutureDate.Error()})
	}
	return nil
}

type HistoryFilter struct {
	From core.Date `query:"from"`
	To   core.Date `query:"to"`
}
