package teacher

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("teacher")
	ErrLoginIDExists = errors.New("a teacher with this login id already exists")
)

type (
	Repository interface {
		LoginIDExists(ctx context.Context, churchID, loginID string, exec ...core.DBExecutor) (bool, error)
		CreateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		// QueryTeachers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Teacher.Name, Teacher.LoginID or Teacher.Email.
		QueryTeachers(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (Teacher, error)
		GetTeacherByLoginID(ctx context.Context, churchID, loginID string, exec ...core.DBExecutor) (Teacher, error)
		GetTeacherByEmail(ctx context.Context, churchID, email string, exec ...core.DBExecutor) (Teacher, error)
		// UpdateTeacher saves the mutable fields of t; PasswordHash only when set.
		UpdateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		SetLastLogin(ctx context.Context, churchID, id string, at time.Time, exec ...core.DBExecutor) error
		DeleteTeacher(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens: tokenGenerator{
			secretKey: conf.SecretKey,
			timeout:   conf.PasswordResetTimeoutDelta,
			now:       func() time.Time { return core.NowFunc() },
		},
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, churchID, loginID string) error {
	exists, err := svc.repo.LoginIDExists(ctx, churchID, loginID)
	if err != nil {
		return errors.Wrap(err, "checking login id uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrLoginIDExists, core.FieldError{Field: "login_id", Error: ErrLoginIDExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := core.NowFunc().UTC()
	t := Teacher{
		ID:        uuid.New().String(),
		ChurchID:  nt.ChurchID,
		LoginID:   nt.LoginID,
		Name:      nt.Name,
		Email:     nt.Email,
		IsAdmin:   nt.IsAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.SetPassword(nt.Password); err != nil {
		return Teacher{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateTeacher(ctx, t)
}

func (svc *Service) Query(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx, churchID, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, churchID, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, churchID, id)
}

func (svc *Service) GetByLoginID(ctx context.Context, churchID, loginID string) (Teacher, error) {
	return svc.repo.GetTeacherByLoginID(ctx, churchID, core.CleanString(loginID, true /* lower */))
}

// QueryAdmins returns the active admin teachers of a church.
func (svc *Service) QueryAdmins(ctx context.Context, churchID string) ([]Teacher, error) {
	yes := true
	return svc.repo.QueryTeachers(ctx, churchID, &QueryFilter{IsAdmin: &yes, IsActive: &yes}, nil)
}

func (svc *Service) Update(ctx context.Context, orig Teacher, ut UpdateTeacher) (Teacher, error) {
	t := orig
	t.Name = ut.Name
	t.Email = ut.Email
	t.PasswordHash = nil
	t.UpdatedAt = core.NowFunc().UTC()
	if ut.IsAdmin != nil {
		t.IsAdmin = *ut.IsAdmin
	}
	if ut.IsActive != nil {
		t.IsActive = *ut.IsActive
	}
	if ut.Password != "" {
		if err := t.SetPassword(ut.Password); err != nil {
			return Teacher{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateTeacher(ctx, t)
}

func (svc *Service) SetLastLogin(ctx context.Context, t Teacher) (Teacher, error) {
	now := core.NowFunc().UTC()
	if err := svc.repo.SetLastLogin(ctx, t.ChurchID, t.ID, now); err != nil {
		return Teacher{}, err
	}
	t.LastLogin = &now
	return t, nil
}

func (svc *Service) Delete(ctx context.Context, churchID, id string) error {
	return svc.repo.DeleteTeacher(ctx, churchID, id)
}

type passwordResetData struct {
	Name       string
	LoginID    string
	ChurchName string
	UID        string
	Token      string
}

// RequestPasswordReset emails a password reset link to the active teacher with the given email.
// It returns ErrNotFound when there is no such teacher.
func (svc *Service) RequestPasswordReset(ctx context.Context, churchID, churchName, email string) error {
	t, err := svc.repo.GetTeacherByEmail(ctx, churchID, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !t.IsActive {
		return ErrNotFound
	}

	token, err := svc.tokens.makeToken(t)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: t.Name, Address: t.Email}},
		Subject:      "비밀번호 재설정",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{
			Name:       t.Name,
			LoginID:    t.LoginID,
			ChurchName: churchName,
			UID:        EncodeUID(t),
			Token:      token,
		},
	})
	return nil
}

// ResetPassword sets a new password after checking the reset token.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (Teacher, error) {
	invalid := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	churchID, id, err := decodeUID(rp.UID)
	if err != nil {
		return Teacher{}, invalid
	}
	t, err := svc.repo.GetTeacherByID(ctx, churchID, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Teacher{}, invalid
		}
		return Teacher{}, errors.Wrap(err, "finding teacher by ID")
	}
	if err = svc.tokens.verifyToken(t, rp.Token); err != nil {
		return Teacher{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = passwordFieldError(rp.Password, t.Name, t.LoginID, t.Email); err != nil {
		return Teacher{}, err
	}

	if err = t.SetPassword(rp.Password); err != nil {
		return Teacher{}, errors.Wrap(err, "setting password")
	}
	t.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateTeacher(ctx, t)
}

// SetPassword sets a new password without any token, for the admin CLI.
func (svc *Service) SetPassword(ctx context.Context, t Teacher, pwd string) (Teacher, error) {
	if err := passwordFieldError(pwd, t.Name, t.LoginID, t.Email); err != nil {
		return Teacher{}, err
	}
	if err := t.SetPassword(pwd); err != nil {
		return Teacher{}, errors.Wrap(err, "setting password")
	}
	t.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateTeacher(ctx, t)
}
