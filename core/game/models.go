package game

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

// PickRequest describes a team picker draw. StudentIDs defaults to every active student;
// either TeamIDs (existing teams) or TeamNames (ad-hoc teams) must be given.
type PickRequest struct {
	StudentIDs []string  `json:"student_ids" validate:"omitempty,max=500,dive,uuid"`
	TeamIDs    []string  `json:"team_ids" validate:"required_without=TeamNames,omitempty,min=2,max=20,dive,uuid"`
	TeamNames  []string  `json:"team_names" validate:"omitempty,min=2,max=20,dive,required,max=50"`
	Weights    []float64 `json:"weights" validate:"omitempty,dive,gt=0"`
	Seed       *int64    `json:"seed"`
	Apply      bool      `json:"apply"`
}

func (pr *PickRequest) teamCount() int {
	if len(pr.TeamIDs) > 0 {
		return len(pr.TeamIDs)
	}
	return len(pr.TeamNames)
}

func (pr *PickRequest) Validate(validate *validator.Validate) error {
	pr.StudentIDs = core.UniqueStrings(pr.StudentIDs)
	pr.TeamIDs = core.UniqueStrings(pr.TeamIDs)
	for i, name := range pr.TeamNames {
		pr.TeamNames[i] = core.CleanString(name)
	}
	if err := validate.Struct(pr); err != nil {
		return err
	}
	if len(pr.TeamIDs) > 0 && len(pr.TeamNames) > 0 {
		return core.NewValidationError(ErrTeamsConflict, core.FieldError{Field: "team_names", Error: ErrTeamsConflict.Error()})
	}
	if len(pr.Weights) > 0 && len(pr.Weights) != pr.teamCount() {
		return core.NewValidationError(ErrWeightsMismatch, core.FieldError{Field: "weights", Error: ErrWeightsMismatch.Error()})
	}
	if pr.Apply && len(pr.TeamIDs) == 0 {
		return core.NewValidationError(ErrApplyAdHoc, core.FieldError{Field: "apply", Error: ErrApplyAdHoc.Error()})
	}
	return nil
}

// NewBoardRequest describes a quiz board session to start.
type NewBoardRequest struct {
	TeamIDs   []string `json:"team_ids" validate:"required_without=TeamNames,omitempty,min=2,max=10,dive,uuid"`
	TeamNames []string `json:"team_names" validate:"omitempty,min=2,max=10,dive,required,max=50"`
	BoardSize int      `json:"board_size" validate:"omitempty,min=5,max=100"`
	Seed      *int64   `json:"seed"`
}

func (nb *NewBoardRequest) Validate(validate *validator.Validate) error {
	nb.TeamIDs = core.UniqueStrings(nb.TeamIDs)
	for i, name := range nb.TeamNames {
		nb.TeamNames[i] = core.CleanString(name)
	}
	if err := validate.Struct(nb); err != nil {
		return err
	}
	if len(nb.TeamIDs) > 0 && len(nb.TeamNames) > 0 {
		return core.NewValidationError(ErrTeamsConflict, core.FieldError{Field: "team_names", Error: ErrTeamsConflict.Error()})
	}
	if nb.BoardSize == 0 {
		nb.BoardSize = DefaultBoardSize
	}
	return nil
}

type AnswerRequest struct {
	Correct *bool `json:"correct" validate:"required"`
}

func (ar *AnswerRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

// AwardRequest grants talents to every member of the winning team.
type AwardRequest struct {
	Amount int    `json:"amount" validate:"required,min=1,max=1000"`
	Note   string `json:"note" validate:"max=200"`
}

func (ar *AwardRequest) Validate(validate *validator.Validate) error {
	ar.Note = core.CleanString(ar.Note)
	return validate.Struct(ar)
}
