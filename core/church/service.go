package church

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("church")
	ErrCodeExists = errors.New("a church with this code already exists")
)

type (
	Repository interface {
		CodeExists(ctx context.Context, code string, exec ...core.DBExecutor) (bool, error)
		CreateChurch(ctx context.Context, ch Church, exec ...core.DBExecutor) (Church, error)
		QueryAllChurches(ctx context.Context, exec ...core.DBExecutor) ([]Church, error)
		GetChurchByID(ctx context.Context, id string, exec ...core.DBExecutor) (Church, error)
		GetChurchByCode(ctx context.Context, code string, exec ...core.DBExecutor) (Church, error)
		UpdateChurchSettings(ctx context.Context, id string, settings Settings, updatedAt time.Time, exec ...core.DBExecutor) (Church, error)
	}

	Service struct {
		repo     Repository
		defaults Settings
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{
		repo: repo,
		defaults: Settings{
			AttendancePoints: conf.Points.Attendance,
			RecitationPoints: conf.Points.Recitation,
			QTPoints:         conf.Points.QT,
		},
	}
}

func (svc *Service) checkCodeUniqueness(ctx context.Context, code string) error {
	exists, err := svc.repo.CodeExists(ctx, code)
	if err != nil {
		return errors.Wrap(err, "checking church code uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewChurch) (Church, error) {
	settings := svc.defaults
	if nc.Settings != nil {
		settings = *nc.Settings
	}
	now := core.NowFunc().UTC()
	ch := Church{
		ID:        uuid.New().String(),
		Code:      nc.Code,
		Name:      nc.Name,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateChurch(ctx, ch)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Church, error) {
	return svc.repo.QueryAllChurches(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Church, error) {
	return svc.repo.GetChurchByID(ctx, id)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Church, error) {
	return svc.repo.GetChurchByCode(ctx, NormalizeCode(code))
}

func (svc *Service) UpdateSettings(ctx context.Context, id string, us UpdateSettings) (Church, error) {
	ch, err := svc.repo.GetChurchByID(ctx, id)
	if err != nil {
		return Church{}, err
	}
	return svc.repo.UpdateChurchSettings(ctx, id, us.apply(ch.Settings), core.NowFunc().UTC())
}
