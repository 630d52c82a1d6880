package team

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("team")
	ErrNameExists      = errors.New("a team with this name already exists")
	ErrUnknownStudents = errors.New("some students do not exist")
)

type (
	Repository interface {
		NameExists(ctx context.Context, churchID, name, excludedID string, exec ...core.DBExecutor) (bool, error)
		CreateTeam(ctx context.Context, t Team, exec ...core.DBExecutor) (Team, error)
		// QueryTeams returns the teams of a church with their members.
		QueryTeams(ctx context.Context, churchID string, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Team, error)
		GetTeamByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (Team, error)
		UpdateTeam(ctx context.Context, t Team, exec ...core.DBExecutor) (Team, error)
		// DeleteTeam removes a team; its members become unassigned.
		DeleteTeam(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error
		CountStudents(ctx context.Context, churchID string, studentIDs []string, exec ...core.DBExecutor) (int, error)
		// ReplaceMembers unassigns the current members of a team and moves the given students into it.
		ReplaceMembers(ctx context.Context, churchID, teamID string, studentIDs []string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func (svc *Service) checkUniqueness(ctx context.Context, churchID, name, excludedID string) error {
	exists, err := svc.repo.NameExists(ctx, churchID, name, excludedID)
	if err != nil {
		return errors.Wrap(err, "checking team name uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTeam) (Team, error) {
	now := core.NowFunc().UTC()
	t := Team{
		ID:        uuid.New().String(),
		ChurchID:  nt.ChurchID,
		Name:      nt.Name,
		Color:     nt.Color,
		Members:   []Member{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateTeam(ctx, t)
}

func (svc *Service) Query(ctx context.Context, churchID string, ordering []core.DBOrdering) ([]Team, error) {
	return svc.repo.QueryTeams(ctx, churchID, ordering)
}

func (svc *Service) GetByID(ctx context.Context, churchID, id string) (Team, error) {
	return svc.repo.GetTeamByID(ctx, churchID, id)
}

// GetByIDs returns the teams with the given IDs in the same order, failing on the first unknown ID.
func (svc *Service) GetByIDs(ctx context.Context, churchID string, ids []string) ([]Team, error) {
	teams := make([]Team, 0, len(ids))
	for _, id := range ids {
		t, err := svc.repo.GetTeamByID(ctx, churchID, id)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (svc *Service) Update(ctx context.Context, orig Team, ut UpdateTeam) (Team, error) {
	t := orig
	t.Name = ut.Name
	t.Color = ut.Color
	t.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateTeam(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, churchID, id string) error {
	return svc.repo.DeleteTeam(ctx, churchID, id)
}

// SetMembers makes studentIDs the exact membership of a team.
// A student belongs to at most one team, so listed students leave their previous team.
func (svc *Service) SetMembers(ctx context.Context, churchID, teamID string, studentIDs []string) (Team, error) {
	studentIDs = core.UniqueStrings(studentIDs)
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetTeamByID(ctx, churchID, teamID, exec); err != nil {
			return err
		}
		if len(studentIDs) > 0 {
			n, err := svc.repo.CountStudents(ctx, churchID, studentIDs, exec)
			if err != nil {
				return errors.Wrap(err, "counting students")
			}
			if n != len(studentIDs) {
				return core.NewValidationError(ErrUnknownStudents, core.FieldError{Field: "student_ids", Error: ErrUnknownStudents.Error()})
			}
		}
		return errors.Wrap(svc.repo.ReplaceMembers(ctx, churchID, teamID, studentIDs, exec), "replacing members")
	})
	if err != nil {
		return Team{}, err
	}
	return svc.repo.GetTeamByID(ctx, churchID, teamID)
}

// Assign saves a full roster split: every team in assignments gets exactly the listed students.
// Used by the team picker to persist a draw.
func (svc *Service) Assign(ctx context.Context, churchID string, assignments map[string][]string) error {
	return svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		for teamID, studentIDs := range assignments {
			if _, err := svc.repo.GetTeamByID(ctx, churchID, teamID, exec); err != nil {
				return err
			}
			if err := svc.repo.ReplaceMembers(ctx, churchID, teamID, core.UniqueStrings(studentIDs), exec); err != nil {
				return errors.Wrap(err, "replacing members")
			}
		}
		return nil
	})
}

