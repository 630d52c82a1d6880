package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("student")
	ErrCodeExists    = errors.New("a student with this code already exists")
	ErrCodeExhausted = errors.New("could not generate a unique student code")
	ErrTeamNotFound  = errors.New("team not found")
)

type (
	Repository interface {
		CodeExists(ctx context.Context, churchID, code string, exec ...core.DBExecutor) (bool, error)
		TeamExists(ctx context.Context, churchID, teamID string, exec ...core.DBExecutor) (bool, error)
		CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Student.Name.
		QueryStudents(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudentByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (Student, error)
		GetStudentByCode(ctx context.Context, churchID, code string, exec ...core.DBExecutor) (Student, error)
		GetStudentsByIDs(ctx context.Context, churchID string, ids []string, exec ...core.DBExecutor) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		SetStudentCode(ctx context.Context, churchID, id, code string, updatedAt time.Time, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo  Repository
		codes *codeGenerator
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, codes: newCodeGenerator(time.Now().UnixNano())}
}

// NewServiceWithSeed returns a Service whose generated codes are reproducible.
func NewServiceWithSeed(repo Repository, seed int64) *Service {
	return &Service{repo: repo, codes: newCodeGenerator(seed)}
}

func (svc *Service) uniqueCode(ctx context.Context, churchID string) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := svc.codes.next()
		exists, err := svc.repo.CodeExists(ctx, churchID, code)
		if err != nil {
			return "", errors.Wrap(err, "checking student code uniqueness")
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func (svc *Service) checkTeam(ctx context.Context, churchID string, teamID *string) error {
	if teamID == nil || *teamID == "" {
		return nil
	}
	exists, err := svc.repo.TeamExists(ctx, churchID, *teamID)
	if err != nil {
		return errors.Wrap(err, "checking team")
	}
	if !exists {
		return core.NewValidationError(ErrTeamNotFound, core.FieldError{Field: "team_id", Error: ErrTeamNotFound.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkTeam(ctx, ns.ChurchID, ns.TeamID); err != nil {
		return Student{}, err
	}

	code := ns.Code
	if code == "" {
		var err error
		if code, err = svc.uniqueCode(ctx, ns.ChurchID); err != nil {
			return Student{}, err
		}
	} else {
		exists, err := svc.repo.CodeExists(ctx, ns.ChurchID, code)
		if err != nil {
			return Student{}, errors.Wrap(err, "checking student code uniqueness")
		}
		if exists {
			return Student{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
		}
	}

	now := core.NowFunc().UTC()
	s := Student{
		ID:        uuid.New().String(),
		ChurchID:  ns.ChurchID,
		TeamID:    ns.TeamID,
		Name:      ns.Name,
		Code:      code,
		Grade:     ns.Grade,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) Query(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, churchID, filter, ordering)
}

// QueryActive returns the active students of a church ordered by name.
func (svc *Service) QueryActive(ctx context.Context, churchID string) ([]Student, error) {
	yes := true
	return svc.repo.QueryStudents(ctx, churchID, &QueryFilter{IsActive: &yes}, []core.DBOrdering{{Field: "name", Ascending: true}})
}

func (svc *Service) GetByID(ctx context.Context, churchID, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, churchID, id)
}

func (svc *Service) GetByCode(ctx context.Context, churchID, code string) (Student, error) {
	return svc.repo.GetStudentByCode(ctx, churchID, core.CleanString(code))
}

// GetByIDs returns the students of a church with the given IDs. Unknown IDs are ignored.
func (svc *Service) GetByIDs(ctx context.Context, churchID string, ids []string) ([]Student, error) {
	ids = core.UniqueStrings(ids)
	if len(ids) == 0 {
		return []Student{}, nil
	}
	return svc.repo.GetStudentsByIDs(ctx, churchID, ids)
}

func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	s := orig
	if us.Name != "" {
		s.Name = us.Name
	}
	if us.Grade != nil {
		s.Grade = *us.Grade
	}
	if us.IsActive != nil {
		s.IsActive = *us.IsActive
	}
	if us.TeamID != nil {
		if *us.TeamID == "" {
			s.TeamID = nil
		} else {
			if err := svc.checkTeam(ctx, orig.ChurchID, us.TeamID); err != nil {
				return Student{}, err
			}
			tid := *us.TeamID
			s.TeamID = &tid
		}
	}
	s.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

// RegenerateCode replaces the login code of a student with a new unique one.
func (svc *Service) RegenerateCode(ctx context.Context, s Student) (Student, error) {
	code, err := svc.uniqueCode(ctx, s.ChurchID)
	if err != nil {
		return Student{}, err
	}
	return svc.repo.SetStudentCode(ctx, s.ChurchID, s.ID, code, core.NowFunc().UTC())
}

func (svc *Service) Delete(ctx context.Context, churchID, id string) error {
	return svc.repo.DeleteStudent(ctx, churchID, id)
}
