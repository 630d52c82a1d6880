package team

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Team struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (t Team) MemberIDs() []string {
	ids := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// NewTeam contains information needed to create a new Team.
type NewTeam struct {
	ChurchID string `json:"-"`
	Name     string `json:"name" validate:"required,max=50"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
}

func (nt *NewTeam) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Color = core.CleanString(nt.Color, true /* lower */)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nt.ChurchID, nt.Name, "")
}

// UpdateTeam defines what information may be provided to modify an existing Team.
type UpdateTeam struct {
	Name  string `json:"name" validate:"max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (ut *UpdateTeam) Validate(ctx context.Context, orig Team, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = orig.Name
	}
	if color := core.CleanString(ut.Color, true /* lower */); color != "" {
		ut.Color = color
	} else {
		ut.Color = orig.Color
	}
	if err := validate.Struct(ut); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, orig.ChurchID, ut.Name, orig.ID)
}

// SetMembers replaces the membership of a team.
type SetMembers struct {
	StudentIDs []string `json:"student_ids" validate:"dive,uuid"`
}

func (sm *SetMembers) Validate(validate *validator.Validate) error {
	sm.StudentIDs = core.UniqueStrings(sm.StudentIDs)
	return validate.Struct(sm)
}
