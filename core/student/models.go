package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

type Student struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id"`
	TeamID    *string   `json:"team_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Grade     string    `json:"grade"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (s Student) LogPerson() core.LogPerson {
	return core.LogPerson{ID: s.ID, Username: s.Name}
}

// NewStudent contains information needed to create a new Student.
// Code is generated when left empty.
type NewStudent struct {
	ChurchID string  `json:"-"`
	Name     string  `json:"name" validate:"required,max=50"`
	Code     string  `json:"code" validate:"omitempty,studentcode"`
	Grade    string  `json:"grade" validate:"max=20"`
	TeamID   *string `json:"team_id" validate:"omitempty,uuid"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	ns.Grade = core.CleanString(ns.Grade)
	if ns.TeamID != nil && core.CleanString(*ns.TeamID) == "" {
		ns.TeamID = nil
	}
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// An empty (non-nil) TeamID removes the student from their team.
type UpdateStudent struct {
	Name     string  `json:"name" validate:"max=50"`
	Grade    *string `json:"grade" validate:"omitempty,max=20"`
	TeamID   *string `json:"team_id" validate:"omitempty,uuid"`
	IsActive *bool   `json:"is_active"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	if us.Grade != nil {
		g := core.CleanString(*us.Grade)
		us.Grade = &g
	}
	if us.TeamID != nil {
		tid := core.CleanString(*us.TeamID)
		us.TeamID = &tid
	}
	return validate.Struct(us)
}

type QueryFilter struct {
	Search   string `query:"search"`
	TeamID   string `query:"team_id"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.TeamID = core.CleanString(qf.TeamID)
}
