package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dalant/core/team"
)

func Test_teamApi(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	ch := app.createChurch(t, "GRACE", "Grace Church")
	other := app.createChurch(t, "HOPE", "Hope Church")
	tchr := app.createTeacher(t, ch, "kim.jh", "Kim Jihoon", "", teacherPwd, false)
	lions := app.createTeam(t, ch, "Lions")
	eagles := app.createTeam(t, ch, "Eagles")
	minji := app.createStudent(t, ch, "Kim Minji", lions.ID)
	junho := app.createStudent(t, ch, "Lee Junho")
	foreign := app.createStudent(t, other, "Choi Hope")

	token := teacherToken(t, ch, tchr)
	members := func(ids ...string) []byte {
		return marshal(t, team.SetMembers{StudentIDs: ids})
	}

	tests := []httpTest{
		{name: "create duplicate name", method: http.MethodPost, path: "/v1/teams", token: token, body: marshal(t, team.NewTeam{Name: "Lions"}), wantCode: http.StatusBadRequest, wantData: marshal(t, map[string]string{"name": "a team with this name already exists"})},
		{name: "create bad color", method: http.MethodPost, path: "/v1/teams", token: token, body: marshal(t, team.NewTeam{Name: "Doves", Color: "blue"}), wantCode: http.StatusBadRequest},
		{name: "create", method: http.MethodPost, path: "/v1/teams", token: token, body: marshal(t, team.NewTeam{Name: "Doves", Color: "#3366FF"}), wantCode: http.StatusCreated},
		{name: "rename to taken name", method: http.MethodPut, path: "/v1/teams/" + eagles.ID, token: token, body: marshal(t, team.UpdateTeam{Name: "Lions"}), wantCode: http.StatusBadRequest},
		{name: "keep own name", method: http.MethodPut, path: "/v1/teams/" + eagles.ID, token: token, body: marshal(t, team.UpdateTeam{Name: "Eagles", Color: "#ff8800"}), wantCode: http.StatusOK},
		{name: "members from another church", method: http.MethodPut, path: "/v1/teams/" + eagles.ID + "/members", token: token, body: members(junho.ID, foreign.ID), wantCode: http.StatusBadRequest},
		{name: "move minji to eagles", method: http.MethodPut, path: "/v1/teams/" + eagles.ID + "/members", token: token, body: members(minji.ID, junho.ID, minji.ID), wantCode: http.StatusOK},
		{name: "unknown team", method: http.MethodGet, path: "/v1/teams/" + foreign.ID, token: token, wantCode: http.StatusNotFound},
		{name: "delete lions", method: http.MethodDelete, path: "/v1/teams/" + lions.ID, token: token, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	got, err := app.teams.GetByID(ctx, ch.ID, eagles.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff8800", got.Color)
	assert.ElementsMatch(t, []string{minji.ID, junho.ID}, got.MemberIDs())

	teams, err := app.teams.Query(ctx, ch.ID, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(teams))
	for _, tm := range teams {
		names = append(names, tm.Name)
	}
	assert.Equal(t, []string{"Doves", "Eagles"}, names)
}
