package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core"
)

func boardTeams() []BoardTeam {
	return []BoardTeam{
		{Name: "Red", StudentIDs: []string{"s1", "s2"}},
		{Name: "Blue", StudentIDs: []string{"s3"}},
	}
}

func TestNewBoard(t *testing.T) {
	tests := []struct {
		name    string
		teams   []BoardTeam
		finish  int
		wantErr bool
	}{
		{name: "one team", teams: boardTeams()[:1], finish: 30, wantErr: true},
		{name: "board too small", teams: boardTeams(), finish: 4, wantErr: true},
		{name: "board too large", teams: boardTeams(), finish: 101, wantErr: true},
		{name: "smallest board", teams: boardTeams(), finish: 5},
		{name: "largest board", teams: boardTeams(), finish: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBoard("b1", "c1", tt.teams, tt.finish, nil, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			st := b.State()
			assert.Equal(t, PhaseQuestion, st.Phase)
			assert.Equal(t, 0, st.Current)
			assert.Nil(t, st.Question)
			assert.Nil(t, st.Winner)
			for _, team := range st.Teams {
				assert.Zero(t, team.Position)
			}
		})
	}
}

func TestBoardTurns(t *testing.T) {
	questions := []BoardQuestion{{ID: "q1", Prompt: "p1"}, {ID: "q2", Prompt: "p2"}}
	b, err := NewBoard("b1", "c1", boardTeams(), 30, questions, 3)
	require.NoError(t, err)
	require.NotNil(t, b.State().Question)

	_, err = b.Roll()
	assert.Equal(t, ErrWrongPhase, err)

	// wrong answer passes the turn
	st, err := b.Answer(false)
	require.NoError(t, err)
	assert.Equal(t, PhaseQuestion, st.Phase)
	assert.Equal(t, 1, st.Current)
	assert.Zero(t, st.Teams[0].Position)
	require.Len(t, st.History, 1)
	assert.False(t, st.History[0].Correct)

	// correct answer earns a roll
	st, err = b.Answer(true)
	require.NoError(t, err)
	assert.Equal(t, PhaseRoll, st.Phase)
	assert.Equal(t, 1, st.Current)

	_, err = b.Answer(true)
	assert.Equal(t, ErrWrongPhase, err)

	st, err = b.Roll()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.LastRoll, 1)
	assert.LessOrEqual(t, st.LastRoll, dieSides)
	assert.Equal(t, st.LastRoll, st.Teams[1].Position)
	assert.Equal(t, PhaseQuestion, st.Phase)
	assert.Equal(t, 0, st.Current)

	// questions cycle through the bank
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		st, err = b.Answer(false)
		require.NoError(t, err)
		seen[st.Question.ID] = true
	}
	assert.Len(t, seen, 2)
}

func TestBoardFinish(t *testing.T) {
	b, err := NewBoard("b1", "c1", boardTeams(), 5, nil, 11)
	require.NoError(t, err)

	_, err = b.MarkAwarded()
	assert.Equal(t, ErrNotFinished, err)

	var st BoardState
	for i := 0; i < 100 && st.Phase != PhaseFinished; i++ {
		_, err = b.Answer(true)
		require.NoError(t, err)
		st, err = b.Roll()
		require.NoError(t, err)
		for _, team := range st.Teams {
			assert.LessOrEqual(t, team.Position, st.Finish)
		}
	}
	require.Equal(t, PhaseFinished, st.Phase)
	require.NotNil(t, st.Winner)
	assert.Equal(t, st.Finish, st.Teams[*st.Winner].Position)
	assert.Nil(t, st.Question)

	_, err = b.Answer(true)
	assert.Equal(t, ErrWrongPhase, err)
	_, err = b.Roll()
	assert.Equal(t, ErrWrongPhase, err)

	winner, err := b.MarkAwarded()
	require.NoError(t, err)
	assert.Equal(t, st.Teams[*st.Winner].Name, winner.Name)
	_, err = b.MarkAwarded()
	assert.Equal(t, ErrAlreadyAwarded, err)

	b.UnmarkAwarded()
	_, err = b.MarkAwarded()
	assert.NoError(t, err)
}

func TestBoardStateIsACopy(t *testing.T) {
	b, err := NewBoard("b1", "c1", boardTeams(), 10, nil, 1)
	require.NoError(t, err)
	st := b.State()
	st.Teams[0].Position = 9
	st.Teams[0].StudentIDs[0] = "x"
	assert.Zero(t, b.State().Teams[0].Position)
	assert.Equal(t, "s1", b.State().Teams[0].StudentIDs[0])
}

func TestRegistry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = time.Now }()

	reg := NewRegistry()
	old, err := NewBoard("old", "c1", boardTeams(), 10, nil, 1)
	require.NoError(t, err)
	reg.Add(old)

	now = now.Add(2 * time.Hour)
	fresh, err := NewBoard("fresh", "c1", boardTeams(), 10, nil, 1)
	require.NoError(t, err)
	reg.Add(fresh)

	_, err = reg.Get("c2", "old")
	assert.Equal(t, ErrSessionNotFound, err)
	got, err := reg.Get("c1", "old")
	require.NoError(t, err)
	assert.Same(t, old, got)
	assert.Equal(t, ErrSessionNotFound, reg.Remove("c2", "fresh"))

	assert.Equal(t, 1, reg.Sweep(time.Hour))
	assert.Equal(t, 1, reg.Len())
	_, err = reg.Get("c1", "old")
	assert.Equal(t, ErrSessionNotFound, err)

	require.NoError(t, reg.Remove("c1", "fresh"))
	assert.Zero(t, reg.Len())
}
