package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/quiz"
	"github.com/trezcool/dalant/core/student"
	"github.com/trezcool/dalant/core/talent"
	"github.com/trezcool/dalant/core/team"
)

var (
	// errors
	ErrTeamsConflict    = errors.New("give either team_ids or team_names, not both")
	ErrWeightsMismatch  = errors.New("there must be one weight per team")
	ErrApplyAdHoc       = errors.New("only draws into existing teams can be applied")
	ErrNoStudents       = errors.New("there are no students to pick")
	ErrUnknownStudent   = errors.New("some students do not exist or are inactive")
	ErrNoWinnerStudents = errors.New("the winning team has no students")
)

// SeedFunc provides the seed of draws and boards started without one.
var SeedFunc = func() int64 { return time.Now().UnixNano() }

type Service struct {
	registry *Registry
	teams    *team.Service
	students *student.Service
	quiz     *quiz.Service
	ledger   *talent.Service
	logger   core.Logger
}

func NewService(
	registry *Registry,
	teams *team.Service,
	students *student.Service,
	quizSvc *quiz.Service,
	ledger *talent.Service,
	logger core.Logger,
) *Service {
	return &Service{
		registry: registry,
		teams:    teams,
		students: students,
		quiz:     quizSvc,
		ledger:   ledger,
		logger:   logger,
	}
}

func seedOf(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return SeedFunc()
}

// engineError turns the argument checks of the game engine into a validation error.
func engineError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "error", Error: err.Error()})
}

func (svc *Service) pickStudents(ctx context.Context, churchID string, ids []string) ([]PickStudent, error) {
	var (
		students []student.Student
		err      error
	)
	if len(ids) == 0 {
		students, err = svc.students.QueryActive(ctx, churchID)
	} else {
		students, err = svc.students.GetByIDs(ctx, churchID, ids)
		if err == nil && len(students) != len(ids) {
			err = core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_ids", Error: ErrUnknownStudent.Error()})
		}
	}
	if err != nil {
		return nil, err
	}

	picks := make([]PickStudent, 0, len(students))
	for _, s := range students {
		if !s.IsActive {
			return nil, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_ids", Error: ErrUnknownStudent.Error()})
		}
		picks = append(picks, PickStudent{ID: s.ID, Name: s.Name})
	}
	if len(picks) == 0 {
		return nil, core.NewValidationError(ErrNoStudents, core.FieldError{Field: "student_ids", Error: ErrNoStudents.Error()})
	}
	return picks, nil
}

// PickTeams runs a team picker draw and, when requested, saves the resulting membership.
func (svc *Service) PickTeams(ctx context.Context, churchID string, pr PickRequest) (PickResult, error) {
	students, err := svc.pickStudents(ctx, churchID, pr.StudentIDs)
	if err != nil {
		return PickResult{}, err
	}

	var teams []PickTeam
	if len(pr.TeamIDs) > 0 {
		existing, err := svc.teams.GetByIDs(ctx, churchID, pr.TeamIDs)
		if err != nil {
			return PickResult{}, err
		}
		for _, t := range existing {
			teams = append(teams, PickTeam{ID: t.ID, Name: t.Name, Weight: 1})
		}
	} else {
		for _, name := range pr.TeamNames {
			teams = append(teams, PickTeam{Name: name, Weight: 1})
		}
	}
	for i, w := range pr.Weights {
		teams[i].Weight = w
	}

	res, err := Pick(students, teams, seedOf(pr.Seed))
	if err != nil {
		return PickResult{}, engineError(err)
	}

	if pr.Apply {
		assignments := make(map[string][]string, len(res.Teams))
		for _, t := range res.Teams {
			ids := make([]string, 0, len(t.Members))
			for _, m := range t.Members {
				ids = append(ids, m.ID)
			}
			assignments[t.ID] = ids
		}
		if err := svc.teams.Assign(ctx, churchID, assignments); err != nil {
			return PickResult{}, errors.Wrap(err, "assigning teams")
		}
		res.Applied = true
	}
	return res, nil
}

// StartBoard creates a quiz board session with the church's question bank.
func (svc *Service) StartBoard(ctx context.Context, churchID string, nb NewBoardRequest) (BoardState, error) {
	var teams []BoardTeam
	if len(nb.TeamIDs) > 0 {
		existing, err := svc.teams.GetByIDs(ctx, churchID, nb.TeamIDs)
		if err != nil {
			return BoardState{}, err
		}
		for _, t := range existing {
			teams = append(teams, BoardTeam{TeamID: t.ID, Name: t.Name, StudentIDs: t.MemberIDs()})
		}
	} else {
		for _, name := range nb.TeamNames {
			teams = append(teams, BoardTeam{Name: name})
		}
	}

	bank, err := svc.quiz.Query(ctx, churchID, nil, nil)
	if err != nil {
		return BoardState{}, errors.Wrap(err, "querying questions")
	}
	questions := make([]BoardQuestion, 0, len(bank))
	for _, q := range bank {
		questions = append(questions, BoardQuestion{ID: q.ID, Prompt: q.Prompt, Answer: q.Answer, Reference: q.Reference})
	}

	boardSize := nb.BoardSize
	if boardSize == 0 {
		boardSize = DefaultBoardSize
	}
	b, err := NewBoard(uuid.New().String(), churchID, teams, boardSize, questions, seedOf(nb.Seed))
	if err != nil {
		return BoardState{}, engineError(err)
	}
	svc.registry.Add(b)
	return b.State(), nil
}

func (svc *Service) Board(churchID, id string) (BoardState, error) {
	b, err := svc.registry.Get(churchID, id)
	if err != nil {
		return BoardState{}, err
	}
	return b.State(), nil
}

func (svc *Service) Answer(churchID, id string, correct bool) (BoardState, error) {
	b, err := svc.registry.Get(churchID, id)
	if err != nil {
		return BoardState{}, err
	}
	return b.Answer(correct)
}

func (svc *Service) Roll(churchID, id string) (BoardState, error) {
	b, err := svc.registry.Get(churchID, id)
	if err != nil {
		return BoardState{}, err
	}
	return b.Roll()
}

// Award grants talents to the members of the winning team of a finished board. It may only happen once.
func (svc *Service) Award(ctx context.Context, churchID, teacherID, id string, ar AwardRequest) (BoardState, []talent.Entry, error) {
	b, err := svc.registry.Get(churchID, id)
	if err != nil {
		return BoardState{}, nil, err
	}
	winner, err := b.MarkAwarded()
	if err != nil {
		return b.State(), nil, err
	}
	if len(winner.StudentIDs) == 0 {
		b.UnmarkAwarded()
		return b.State(), nil, core.NewValidationError(ErrNoWinnerStudents, core.FieldError{Field: "error", Error: ErrNoWinnerStudents.Error()})
	}

	note := ar.Note
	if note == "" {
		note = "quiz board: " + winner.Name
	}
	entries, err := svc.ledger.GrantMany(ctx, churchID, teacherID, winner.StudentIDs, ar.Amount, talent.KindGame, note)
	if err != nil {
		b.UnmarkAwarded()
		return b.State(), nil, err
	}
	svc.logger.Info("quiz board awarded", map[string]interface{}{"board": id, "team": winner.Name, "amount": ar.Amount})
	return b.State(), entries, nil
}

func (svc *Service) EndBoard(churchID, id string) error {
	return svc.registry.Remove(churchID, id)
}

// SweepBoards evicts idle sessions.
func (svc *Service) SweepBoards(ttl time.Duration) int {
	return svc.registry.Sweep(ttl)
}
