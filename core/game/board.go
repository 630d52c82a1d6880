package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

// Phases
const (
	PhaseQuestion = "question"
	PhaseRoll     = "roll"
	PhaseFinished = "finished"
)

const (
	dieSides         = 6
	minBoardSize     = 5
	maxBoardSize     = 100
	DefaultBoardSize = 30
)

var (
	// errors
	ErrWrongPhase     = errors.New("move not allowed in the current phase")
	ErrNotFinished    = errors.New("game is not finished")
	ErrAlreadyAwarded = errors.New("game result is already awarded")
)

type (
	BoardTeam struct {
		TeamID     string   `json:"team_id,omitempty"`
		Name       string   `json:"name"`
		StudentIDs []string `json:"student_ids"`
		Position   int      `json:"position"`
	}

	BoardQuestion struct {
		ID        string `json:"id"`
		Prompt    string `json:"prompt"`
		Answer    string `json:"answer"`
		Reference string `json:"reference"`
	}

	Move struct {
		Team       int       `json:"team"`
		QuestionID string    `json:"question_id,omitempty"`
		Correct    bool      `json:"correct"`
		Roll       int       `json:"roll,omitempty"`
		From       int       `json:"from"`
		To         int       `json:"to"`
		At         time.Time `json:"at"`
	}

	// BoardState is a snapshot of a quiz board session.
	BoardState struct {
		ID        string         `json:"id"`
		ChurchID  string         `json:"church_id"`
		Teams     []BoardTeam    `json:"teams"`
		Finish    int            `json:"finish"`
		Current   int            `json:"current"`
		Phase     string         `json:"phase"`
		Question  *BoardQuestion `json:"question"`
		LastRoll  int            `json:"last_roll"`
		Winner    *int           `json:"winner"`
		History   []Move         `json:"history"`
		Awarded   bool           `json:"awarded"`
		CreatedAt time.Time      `json:"created_at"`
		UpdatedAt time.Time      `json:"updated_at"`
	}

	// Board is the state machine of a quiz board race. Teams take turns answering;
	// a correct answer earns a die roll moving the team token toward the finish cell.
	Board struct {
		mu        sync.Mutex
		state     BoardState
		questions []BoardQuestion
		next      int
		rng       *rand.Rand
	}
)

// NewBoard starts a session in the question phase with the first team to play.
// Questions are shuffled and then cycled; with no questions the teacher asks verbally.
func NewBoard(id, churchID string, teams []BoardTeam, finish int, questions []BoardQuestion, seed int64) (b *Board, err error) {
	if err = vala.BeginValidation().Validate(
		vala.StringNotEmpty(id, "id"),
		vala.StringNotEmpty(churchID, "churchID"),
		vala.GreaterThan(len(teams), 1, "teams"),
		vala.GreaterThan(finish, minBoardSize-1, "finish"),
		vala.Not(vala.GreaterThan(finish, maxBoardSize, "finish")),
	).Check(); err != nil {
		return nil, err
	}

	now := core.NowFunc().UTC()
	b = &Board{
		questions: make([]BoardQuestion, len(questions)),
		rng:       rand.New(rand.NewSource(seed)),
	}
	copy(b.questions, questions)
	b.rng.Shuffle(len(b.questions), func(i, j int) { b.questions[i], b.questions[j] = b.questions[j], b.questions[i] })

	bTeams := make([]BoardTeam, len(teams))
	for i, t := range teams {
		t.Position = 0
		if t.StudentIDs == nil {
			t.StudentIDs = []string{}
		}
		bTeams[i] = t
	}
	b.state = BoardState{
		ID:        id,
		ChurchID:  churchID,
		Teams:     bTeams,
		Finish:    finish,
		Phase:     PhaseQuestion,
		History:   []Move{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.state.Question = b.nextQuestion()
	return b, nil
}

func (b *Board) nextQuestion() *BoardQuestion {
	if len(b.questions) == 0 {
		return nil
	}
	q := b.questions[b.next%len(b.questions)]
	b.next++
	return &q
}

func (b *Board) nextTeam() {
	b.state.Current = (b.state.Current + 1) % len(b.state.Teams)
	b.state.Question = b.nextQuestion()
	b.state.Phase = PhaseQuestion
}

func (b *Board) questionID() string {
	if b.state.Question == nil {
		return ""
	}
	return b.state.Question.ID
}

// Answer records whether the current team answered correctly.
// A correct answer moves to the roll phase; a wrong one passes the turn with a new question.
func (b *Board) Answer(correct bool) (BoardState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Phase != PhaseQuestion {
		return b.snapshot(), ErrWrongPhase
	}
	now := core.NowFunc().UTC()
	pos := b.state.Teams[b.state.Current].Position
	if correct {
		b.state.Phase = PhaseRoll
	} else {
		b.state.History = append(b.state.History, Move{
			Team: b.state.Current, QuestionID: b.questionID(), From: pos, To: pos, At: now,
		})
		b.nextTeam()
	}
	b.state.UpdatedAt = now
	return b.snapshot(), nil
}

// Roll throws the die for the current team. Landing past the finish stops on it and ends the game.
func (b *Board) Roll() (BoardState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Phase != PhaseRoll {
		return b.snapshot(), ErrWrongPhase
	}
	now := core.NowFunc().UTC()
	roll := b.rng.Intn(dieSides) + 1
	team := &b.state.Teams[b.state.Current]
	from := team.Position
	to := from + roll
	if to > b.state.Finish {
		to = b.state.Finish
	}
	team.Position = to

	b.state.LastRoll = roll
	b.state.History = append(b.state.History, Move{
		Team: b.state.Current, QuestionID: b.questionID(), Correct: true, Roll: roll, From: from, To: to, At: now,
	})
	if to == b.state.Finish {
		winner := b.state.Current
		b.state.Winner = &winner
		b.state.Phase = PhaseFinished
		b.state.Question = nil
	} else {
		b.nextTeam()
	}
	b.state.UpdatedAt = now
	return b.snapshot(), nil
}

// MarkAwarded flags a finished game as awarded and returns the winning team.
func (b *Board) MarkAwarded() (BoardTeam, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Phase != PhaseFinished || b.state.Winner == nil {
		return BoardTeam{}, ErrNotFinished
	}
	if b.state.Awarded {
		return BoardTeam{}, ErrAlreadyAwarded
	}
	b.state.Awarded = true
	b.state.UpdatedAt = core.NowFunc().UTC()
	return b.state.Teams[*b.state.Winner], nil
}

// UnmarkAwarded reverts MarkAwarded when granting the award failed.
func (b *Board) UnmarkAwarded() {
	b.mu.Lock()
	b.state.Awarded = false
	b.mu.Unlock()
}

func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *Board) lastActivity() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.UpdatedAt
}

// snapshot deep copies the state. Callers hold b.mu.
func (b *Board) snapshot() BoardState {
	s := b.state
	s.Teams = make([]BoardTeam, len(b.state.Teams))
	for i, t := range b.state.Teams {
		t.StudentIDs = append([]string{}, t.StudentIDs...)
		s.Teams[i] = t
	}
	s.History = append([]Move{}, b.state.History...)
	if b.state.Question != nil {
		q := *b.state.Question
		s.Question = &q
	}
	if b.state.Winner != nil {
		w := *b.state.Winner
		s.Winner = &w
	}
	return s
}
