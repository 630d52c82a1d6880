package church

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dalant/core"
)

const maxPoints = 100

// Settings holds the talent awards applied automatically for a church.
type Settings struct {
	AttendancePoints int `json:"attendance_points"`
	RecitationPoints int `json:"recitation_points"`
	QTPoints         int `json:"qt_points"`
}

type Church struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NormalizeCode trims and upper-cases a church code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

// NewChurch contains information needed to create a new Church.
type NewChurch struct {
	Code     string    `json:"code" validate:"required,churchcode"`
	Name     string    `json:"name" validate:"required,max=100"`
	Settings *Settings `json:"settings"`
}

func (nc *NewChurch) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Code = NormalizeCode(nc.Code)
	nc.Name = core.CleanString(nc.Name)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.Settings != nil {
		if err := validateSettings(*nc.Settings); err != nil {
			return err
		}
	}
	return svc.checkCodeUniqueness(ctx, nc.Code)
}

// UpdateSettings defines what settings may be provided to modify an existing Church.
type UpdateSettings struct {
	AttendancePoints *int `json:"attendance_points" validate:"omitempty,min=0,max=100"`
	RecitationPoints *int `json:"recitation_points" validate:"omitempty,min=0,max=100"`
	QTPoints         *int `json:"qt_points" validate:"omitempty,min=0,max=100"`
}

func (us UpdateSettings) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

// apply returns orig with the provided settings overridden.
func (us UpdateSettings) apply(orig Settings) Settings {
	if us.AttendancePoints != nil {
		orig.AttendancePoints = *us.AttendancePoints
	}
	if us.RecitationPoints != nil {
		orig.RecitationPoints = *us.RecitationPoints
	}
	if us.QTPoints != nil {
		orig.QTPoints = *us.QTPoints
	}
	return orig
}

func validateSettings(s Settings) error {
	var flds []core.FieldError
	check := func(field string, val int) {
		if val < 0 || val > maxPoints {
			flds = append(flds, core.FieldError{Field: field, Error: field + " must be between 0 and 100"})
		}
	}
	check("attendance_points", s.AttendancePoints)
	check("recitation_points", s.RecitationPoints)
	check("qt_points", s.QTPoints)
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
