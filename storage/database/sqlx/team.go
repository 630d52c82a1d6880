package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/team"
)

const teamColumns = `id, church_id, name, color, created_at, updated_at`

var teamOrdering = map[string]string{
	"name":       "name",
	"color":      "color",
	"created_at": "created_at",
}

type teamRow struct {
	ID        string      `db:"id"`
	ChurchID  string      `db:"church_id"`
	Name      string      `db:"name"`
	Color     null.String `db:"color"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type memberRow struct {
	TeamID string `db:"team_id"`
	ID     string `db:"id"`
	Name   string `db:"name"`
}

func toTeamRow(t team.Team) teamRow {
	return teamRow{
		ID:        t.ID,
		ChurchID:  t.ChurchID,
		Name:      t.Name,
		Color:     null.NewString(t.Color, t.Color != ""),
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (r teamRow) team() team.Team {
	return team.Team{
		ID:        r.ID,
		ChurchID:  r.ChurchID,
		Name:      r.Name,
		Color:     r.Color.String,
		Members:   make([]team.Member, 0),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type teamRepository struct {
	repo
}

var _ team.Repository = (*teamRepository)(nil) // interface compliance check

func NewTeamRepository(exec core.DBExecutor) *teamRepository {
	return &teamRepository{repo{exec: exec}}
}

// withMembers loads the members of teams, ordered by name.
func (tr teamRepository) withMembers(ctx context.Context, exec core.DBExecutor, teams []team.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]string, 0, len(teams))
	idx := make(map[string]int, len(teams))
	for i, t := range teams {
		ids = append(ids, t.ID)
		idx[t.ID] = i
	}

	var rows []memberRow
	q := `SELECT team_id, id, name FROM student WHERE team_id IN (?) ORDER BY name, id`
	if err := selectIn(ctx, exec, &rows, q, ids); err != nil {
		return errors.Wrap(err, "querying team members")
	}
	for _, r := range rows {
		t := &teams[idx[r.TeamID]]
		t.Members = append(t.Members, team.Member{ID: r.ID, Name: r.Name})
	}
	return nil
}

func (tr teamRepository) NameExists(ctx context.Context, churchID, name, excludedID string, exec ...core.DBExecutor) (bool, error) {
	w := &where{}
	w.add("church_id = ?", churchID)
	w.add("name = ?", name)
	if validUUIDs(excludedID) {
		w.add("id <> ?", excludedID)
	}
	var exists bool
	if err := getIn(ctx, tr.getExec(exec), &exists, `SELECT EXISTS (SELECT 1 FROM team`+w.String()+`)`, w.args...); err != nil {
		return false, errors.Wrap(err, "checking team name")
	}
	return exists, nil
}

func (tr teamRepository) CreateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	row := toTeamRow(t)
	_, err := sqlx.NamedExecContext(ctx, tr.getExec(exec), `
		INSERT INTO team (`+teamColumns+`)
		VALUES (:id, :church_id, :name, :color, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return team.Team{}, team.ErrNameExists
		}
		return team.Team{}, errors.Wrap(err, "inserting team")
	}
	return row.team(), nil
}

func (tr teamRepository) QueryTeams(ctx context.Context, churchID string, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]team.Team, error) {
	exe := tr.getExec(exec)
	var rows []teamRow
	q := `SELECT ` + teamColumns + ` FROM team WHERE church_id = $1` + orderBy(ordering, teamOrdering, "name ASC")
	if err := sqlx.SelectContext(ctx, exe, &rows, q, churchID); err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	teams := make([]team.Team, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, r.team())
	}
	if err := tr.withMembers(ctx, exe, teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (tr teamRepository) GetTeamByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (team.Team, error) {
	if !validUUIDs(churchID, id) {
		return team.Team{}, team.ErrNotFound
	}
	exe := tr.getExec(exec)
	var row teamRow
	if err := sqlx.GetContext(ctx, exe, &row, `SELECT `+teamColumns+` FROM team WHERE church_id = $1 AND id = $2`, churchID, id); err != nil {
		return team.Team{}, trapNoRowsErr(err, team.ErrNotFound, "finding team by ID")
	}
	teams := []team.Team{row.team()}
	if err := tr.withMembers(ctx, exe, teams); err != nil {
		return team.Team{}, err
	}
	return teams[0], nil
}

func (tr teamRepository) UpdateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	if !validUUIDs(t.ChurchID, t.ID) {
		return team.Team{}, team.ErrNotFound
	}
	exe := tr.getExec(exec)
	var row teamRow
	err := sqlx.GetContext(ctx, exe, &row, `
		UPDATE team SET name = $3, color = $4, updated_at = $5
		WHERE church_id = $1 AND id = $2
		RETURNING `+teamColumns,
		t.ChurchID, t.ID, t.Name, null.NewString(t.Color, t.Color != ""), t.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "") {
			return team.Team{}, team.ErrNameExists
		}
		return team.Team{}, trapNoRowsErr(err, team.ErrNotFound, "updating team")
	}
	teams := []team.Team{row.team()}
	if err := tr.withMembers(ctx, exe, teams); err != nil {
		return team.Team{}, err
	}
	return teams[0], nil
}

// DeleteTeam relies on ON DELETE SET NULL to unassign the members.
func (tr teamRepository) DeleteTeam(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	if !validUUIDs(churchID, id) {
		return team.ErrNotFound
	}
	res, err := tr.getExec(exec).ExecContext(ctx, `DELETE FROM team WHERE church_id = $1 AND id = $2`, churchID, id)
	if err != nil {
		return errors.Wrap(err, "deleting team")
	}
	return mustAffect(res, team.ErrNotFound)
}

func (tr teamRepository) CountStudents(ctx context.Context, churchID string, studentIDs []string, exec ...core.DBExecutor) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	if !validUUIDs(studentIDs...) {
		// some ids cannot match any student
		valid := make([]string, 0, len(studentIDs))
		for _, id := range studentIDs {
			if validUUIDs(id) {
				valid = append(valid, id)
			}
		}
		if len(valid) == 0 {
			return 0, nil
		}
		studentIDs = valid
	}
	var n int
	err := getIn(ctx, tr.getExec(exec), &n, `SELECT count(*) FROM student WHERE church_id = ? AND id IN (?)`, churchID, studentIDs)
	return n, errors.Wrap(err, "counting students")
}

func (tr teamRepository) ReplaceMembers(ctx context.Context, churchID, teamID string, studentIDs []string, exec ...core.DBExecutor) error {
	exe := tr.getExec(exec)
	if _, err := exe.ExecContext(ctx, `UPDATE student SET team_id = NULL WHERE church_id = $1 AND team_id = $2`, churchID, teamID); err != nil {
		return errors.Wrap(err, "unassigning team members")
	}
	if len(studentIDs) == 0 {
		return nil
	}
	_, err := execIn(ctx, exe, `UPDATE student SET team_id = ? WHERE church_id = ? AND id IN (?)`, teamID, churchID, studentIDs)
	return errors.Wrap(err, "assigning team members")
}
