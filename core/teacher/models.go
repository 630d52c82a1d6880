package teacher

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/dalant/core"
)

type Teacher struct {
	ID           string     `json:"id"`
	ChurchID     string     `json:"church_id"`
	LoginID      string     `json:"login_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	IsAdmin      bool       `json:"is_admin"`
	IsActive     bool       `json:"is_active"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
	LastLogin    *time.Time `json:"last_login"` // UTC
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(pwd))
}

func (t Teacher) LogPerson() core.LogPerson {
	return core.LogPerson{ID: t.ID, Username: t.LoginID, Email: t.Email}
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	ChurchID        string `json:"-"`
	LoginID         string `json:"login_id" validate:"required,loginid"`
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	IsAdmin         bool   `json:"is_admin"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.LoginID = core.CleanString(nt.LoginID, true /* lower */)
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nt.ChurchID, nt.LoginID)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// IsAdmin and IsActive may only be set by admin teachers.
type UpdateTeacher struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	IsAdmin         *bool  `json:"is_admin"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`

	loginID string // for password similarity checks
}

func (ut *UpdateTeacher) Validate(orig Teacher, validate *validator.Validate) error {
	ut.loginID = orig.LoginID

	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = orig.Name
	}
	if email := core.CleanString(ut.Email, true /* lower */); email != "" {
		ut.Email = email
	} else {
		ut.Email = orig.Email
	}
	return validate.Struct(ut)
}

func (ut UpdateTeacher) HasAdminFields() bool {
	return ut.IsAdmin != nil || ut.IsActive != nil
}

type ResetPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
	IsAdmin  *bool  `query:"is_admin"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
