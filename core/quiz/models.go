package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

type Question struct {
	ID        string    `json:"id"`
	ChurchID  string    `json:"church_id"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewQuestion contains information needed to create a new Question.
type NewQuestion struct {
	Prompt    string `json:"prompt" yaml:"prompt" validate:"required,max=500"`
	Answer    string `json:"answer" yaml:"answer" validate:"required,max=200"`
	Reference string `json:"reference" yaml:"reference" validate:"max=100"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Prompt = core.CleanString(nq.Prompt)
	nq.Answer = core.CleanString(nq.Answer)
	nq.Reference = core.CleanString(nq.Reference)
	return validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
type UpdateQuestion struct {
	Prompt    string  `json:"prompt" validate:"max=500"`
	Answer    string  `json:"answer" validate:"max=200"`
	Reference *string `json:"reference" validate:"omitempty,max=100"`
}

func (uq *UpdateQuestion) Validate(validate *validator.Validate) error {
	uq.Prompt = core.CleanString(uq.Prompt)
	uq.Answer = core.CleanString(uq.Answer)
	if uq.Reference != nil {
		ref := core.CleanString(*uq.Reference)
		uq.Reference = &ref
	}
	return validate.Struct(uq)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
