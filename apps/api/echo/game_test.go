package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/dalant/apps/api/echo"
	"github.com/trezcool/dalant/core/game"
	"github.com/trezcool/dalant/core/quiz"
	"github.com/trezcool/dalant/core/team"
)

func Test_teamPickerApi(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	token := teacherToken(t, ch, tchr)
	doves := app.createTeam(t, ch, "Doves")
	eagles := app.createTeam(t, ch, "Eagles")
	for _, name := range []string{"Kim Minji", "Lee Junho", "Park Seo", "Choi Yuna", "Jung Hana"} {
		app.createStudent(t, ch, name)
	}

	seed := int64(7)
	pick := func(pr game.PickRequest) []byte {
		pr.Seed = &seed
		return marshal(t, pr)
	}

	tests := []httpTest{
		{name: "no teams", method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: pick(game.PickRequest{}), wantCode: http.StatusBadRequest},
		{name: "both team kinds", method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: pick(game.PickRequest{TeamIDs: []string{doves.ID, eagles.ID}, TeamNames: []string{"A", "B"}}), wantCode: http.StatusBadRequest, wantData: marshal(t, map[string]string{"team_names": game.ErrTeamsConflict.Error()})},
		{name: "weights mismatch", method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: pick(game.PickRequest{TeamNames: []string{"A", "B"}, Weights: []float64{1}}), wantCode: http.StatusBadRequest, wantData: marshal(t, map[string]string{"weights": game.ErrWeightsMismatch.Error()})},
		{name: "apply ad-hoc teams", method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: pick(game.PickRequest{TeamNames: []string{"A", "B"}, Apply: true}), wantCode: http.StatusBadRequest, wantData: marshal(t, map[string]string{"apply": game.ErrApplyAdHoc.Error()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	t.Run("same seed same draw", func(t *testing.T) {
		body := pick(game.PickRequest{TeamNames: []string{"A", "B", "C"}, Weights: []float64{1, 2, 3}})
		first := app.run(t, httpTest{method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: body, wantCode: http.StatusOK})
		second := app.run(t, httpTest{method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: body, wantCode: http.StatusOK})
		assert.JSONEq(t, first.Body.String(), second.Body.String())

		var res game.PickResult
		decode(t, first, &res)
		assert.Equal(t, seed, res.Seed)
		assert.Len(t, res.Draws, 5)
		assert.False(t, res.Applied)
		for _, tm := range res.Teams {
			assert.Contains(t, []int{1, 2}, len(tm.Members), tm.Name)
		}
	})

	t.Run("apply", func(t *testing.T) {
		rec := app.run(t, httpTest{method: http.MethodPost, path: "/v1/games/team-picker", token: token, body: pick(game.PickRequest{TeamIDs: []string{doves.ID, eagles.ID}, Apply: true}), wantCode: http.StatusOK})
		var res game.PickResult
		decode(t, rec, &res)
		require.True(t, res.Applied)
		require.Len(t, res.Teams, 2)

		for _, picked := range res.Teams {
			rec := app.run(t, httpTest{method: http.MethodGet, path: "/v1/teams/" + picked.ID, token: token, wantCode: http.StatusOK})
			var tm team.Team
			decode(t, rec, &tm)
			assert.Len(t, tm.Members, len(picked.Members), tm.Name)
		}
		assert.ElementsMatch(t, []int{2, 3}, []int{len(res.Teams[0].Members), len(res.Teams[1].Members)})
	})
}

func Test_quizBoardApi(t *testing.T) {
	app := newTestApp(t)
	ch := app.createChurch(t, "GRACE", "Grace Church")
	other := app.createChurch(t, "HOPE", "Hope Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	token := teacherToken(t, ch, tchr)
	otherToken := teacherToken(t, other, app.createTeacher(t, other, "lee.sy", "Lee Soyeon", "", teacherPwd, false))

	doves := app.createTeam(t, ch, "Doves")
	eagles := app.createTeam(t, ch, "Eagles")
	app.createStudent(t, ch, "Kim Minji", doves.ID)
	app.createStudent(t, ch, "Lee Junho", doves.ID)
	app.createStudent(t, ch, "Park Seo", eagles.ID)
	_, err := app.quiz.Create(context.Background(), ch.ID, quiz.NewQuestion{Prompt: "Who built the ark?", Answer: "Noah"})
	require.NoError(t, err)

	seed := int64(3)
	rec := app.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/v1/games/quiz-board",
		token:    token,
		body:     marshal(t, game.NewBoardRequest{TeamIDs: []string{doves.ID, eagles.ID}, BoardSize: 5, Seed: &seed}),
		wantCode: http.StatusCreated,
	})
	var state game.BoardState
	decode(t, rec, &state)
	require.Equal(t, game.PhaseQuestion, state.Phase)
	require.NotNil(t, state.Question)
	assert.Equal(t, "Noah", state.Question.Answer)
	assert.Equal(t, 5, state.Finish)
	path := "/v1/games/quiz-board/" + state.ID

	wrongPhase := marshal(t, httpErr{Error: game.ErrWrongPhase.Error()})
	award := marshal(t, game.AwardRequest{Amount: 3})
	tests := []httpTest{
		{name: "other church", method: http.MethodGet, path: path, token: otherToken, wantCode: http.StatusNotFound},
		{name: "roll before answering", method: http.MethodPost, path: path + "/roll", token: token, wantCode: http.StatusConflict, wantData: wrongPhase},
		{name: "award before the end", method: http.MethodPost, path: path + "/award", token: token, body: award, wantCode: http.StatusConflict, wantData: marshal(t, httpErr{Error: game.ErrNotFinished.Error()})},
		{name: "answer is required", method: http.MethodPost, path: path + "/answer", token: token, body: []byte("{}"), wantCode: http.StatusBadRequest},
		{name: "wrong answer passes the turn", method: http.MethodPost, path: path + "/answer", token: token, body: []byte(`{"correct": false}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	rec = app.run(t, httpTest{method: http.MethodGet, path: path, token: token, wantCode: http.StatusOK})
	decode(t, rec, &state)
	assert.Equal(t, 1, state.Current)
	require.Len(t, state.History, 1)

	for i := 0; i < 20 && state.Phase != game.PhaseFinished; i++ {
		rec = app.run(t, httpTest{method: http.MethodPost, path: path + "/answer", token: token, body: []byte(`{"correct": true}`), wantCode: http.StatusOK})
		decode(t, rec, &state)
		require.Equal(t, game.PhaseRoll, state.Phase)
		app.run(t, httpTest{method: http.MethodPost, path: path + "/answer", token: token, body: []byte(`{"correct": true}`), wantCode: http.StatusConflict, wantData: wrongPhase})

		rec = app.run(t, httpTest{method: http.MethodPost, path: path + "/roll", token: token, wantCode: http.StatusOK})
		decode(t, rec, &state)
		assert.True(t, state.LastRoll >= 1 && state.LastRoll <= 6, state.LastRoll)
	}
	require.Equal(t, game.PhaseFinished, state.Phase)
	require.NotNil(t, state.Winner)
	winner := state.Teams[*state.Winner]
	assert.Equal(t, state.Finish, winner.Position)

	rec = app.run(t, httpTest{method: http.MethodPost, path: path + "/award", token: token, body: award, wantCode: http.StatusOK})
	var resp AwardResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Board.Awarded)
	require.Len(t, resp.Entries, len(winner.StudentIDs))
	for _, sid := range winner.StudentIDs {
		balance, err := app.talents.Balance(context.Background(), ch.ID, sid)
		require.NoError(t, err)
		assert.Equal(t, 3, balance)
	}

	app.run(t, httpTest{method: http.MethodPost, path: path + "/award", token: token, body: award, wantCode: http.StatusConflict, wantData: marshal(t, httpErr{Error: game.ErrAlreadyAwarded.Error()})})
	app.run(t, httpTest{method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNoContent})
	app.run(t, httpTest{method: http.MethodGet, path: path, token: token, wantCode: http.StatusNotFound})
}
