package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
)

const churchColumns = `id, code, name, attendance_points, recitation_points, qt_points, created_at, updated_at`

type churchRow struct {
	ID               string    `db:"id"`
	Code             string    `db:"code"`
	Name             string    `db:"name"`
	AttendancePoints int       `db:"attendance_points"`
	RecitationPoints int       `db:"recitation_points"`
	QTPoints         int       `db:"qt_points"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func toChurchRow(ch church.Church) churchRow {
	return churchRow{
		ID:               ch.ID,
		Code:             ch.Code,
		Name:             ch.Name,
		AttendancePoints: ch.Settings.AttendancePoints,
		RecitationPoints: ch.Settings.RecitationPoints,
		QTPoints:         ch.Settings.QTPoints,
		CreatedAt:        ch.CreatedAt.UTC(),
		UpdatedAt:        ch.UpdatedAt.UTC(),
	}
}

func (r churchRow) church() church.Church {
	return church.Church{
		ID:   r.ID,
		Code: r.Code,
		Name: r.Name,
		Settings: church.Settings{
			AttendancePoints: r.AttendancePoints,
			RecitationPoints: r.RecitationPoints,
			QTPoints:         r.QTPoints,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type churchRepository struct {
	repo
}

var _ church.Repository = (*churchRepository)(nil) // interface compliance check

func NewChurchRepository(exec core.DBExecutor) *churchRepository {
	return &churchRepository{repo{exec: exec}}
}

func (cr churchRepository) CodeExists(ctx context.Context, code string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, cr.getExec(exec), &exists, `SELECT EXISTS (SELECT 1 FROM church WHERE code = $1)`, code)
	return exists, errors.Wrap(err, "checking church code")
}

func (cr churchRepository) CreateChurch(ctx context.Context, ch church.Church, exec ...core.DBExecutor) (church.Church, error) {
	row := toChurchRow(ch)
	_, err := sqlx.NamedExecContext(ctx, cr.getExec(exec), `
		INSERT INTO church (`+churchColumns+`)
		VALUES (:id, :code, :name, :attendance_points, :recitation_points, :qt_points, :created_at, :updated_at)`, row)
	if err != nil {
		return church.Church{}, errors.Wrap(err, "inserting church")
	}
	return row.church(), nil
}

func (cr churchRepository) QueryAllChurches(ctx context.Context, exec ...core.DBExecutor) ([]church.Church, error) {
	var rows []churchRow
	if err := sqlx.SelectContext(ctx, cr.getExec(exec), &rows, `SELECT `+churchColumns+` FROM church ORDER BY code`); err != nil {
		return nil, errors.Wrap(err, "querying churches")
	}
	churches := make([]church.Church, 0, len(rows))
	for _, r := range rows {
		churches = append(churches, r.church())
	}
	return churches, nil
}

func (cr churchRepository) GetChurchByID(ctx context.Context, id string, exec ...core.DBExecutor) (church.Church, error) {
	if !validUUIDs(id) {
		return church.Church{}, church.ErrNotFound
	}
	var row churchRow
	if err := sqlx.GetContext(ctx, cr.getExec(exec), &row, `SELECT `+churchColumns+` FROM church WHERE id = $1`, id); err != nil {
		return church.Church{}, trapNoRowsErr(err, church.ErrNotFound, "finding church by ID")
	}
	return row.church(), nil
}

func (cr churchRepository) GetChurchByCode(ctx context.Context, code string, exec ...core.DBExecutor) (church.Church, error) {
	var row churchRow
	if err := sqlx.GetContext(ctx, cr.getExec(exec), &row, `SELECT `+churchColumns+` FROM church WHERE code = $1`, code); err != nil {
		return church.Church{}, trapNoRowsErr(err, church.ErrNotFound, "finding church by code")
	}
	return row.church(), nil
}

func (cr churchRepository) UpdateChurchSettings(ctx context.Context, id string, settings church.Settings, updatedAt time.Time, exec ...core.DBExecutor) (church.Church, error) {
	var row churchRow
	err := sqlx.GetContext(ctx, cr.getExec(exec), &row, `
		UPDATE church
		SET attendance_points = $2, recitation_points = $3, qt_points = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+churchColumns,
		id, settings.AttendancePoints, settings.RecitationPoints, settings.QTPoints, updatedAt.UTC())
	if err != nil {
		return church.Church{}, trapNoRowsErr(err, church.ErrNotFound, "updating church settings")
	}
	return row.church(), nil
}
