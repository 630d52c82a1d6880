package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/quiz"
)

const questionColumns = `id, church_id, prompt, answer, reference, created_at, updated_at`

var questionOrdering = map[string]string{
	"prompt":     "prompt",
	"reference":  "reference",
	"created_at": "created_at",
	"id":         "id",
}

type questionRow struct {
	ID        string      `db:"id"`
	ChurchID  string      `db:"church_id"`
	Prompt    string      `db:"prompt"`
	Answer    string      `db:"answer"`
	Reference null.String `db:"reference"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func toQuestionRow(q quiz.Question) questionRow {
	return questionRow{
		ID:        q.ID,
		ChurchID:  q.ChurchID,
		Prompt:    q.Prompt,
		Answer:    q.Answer,
		Reference: null.NewString(q.Reference, q.Reference != ""),
		CreatedAt: q.CreatedAt.UTC(),
		UpdatedAt: q.UpdatedAt.UTC(),
	}
}

func (r questionRow) question() quiz.Question {
	return quiz.Question{
		ID:        r.ID,
		ChurchID:  r.ChurchID,
		Prompt:    r.Prompt,
		Answer:    r.Answer,
		Reference: r.Reference.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type quizRepository struct {
	repo
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(exec core.DBExecutor) *quizRepository {
	return &quizRepository{repo{exec: exec}}
}

func (qr quizRepository) CreateQuestions(ctx context.Context, questions []quiz.Question, exec ...core.DBExecutor) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, toQuestionRow(q))
	}
	_, err := sqlx.NamedExecContext(ctx, qr.getExec(exec), `
		INSERT INTO quiz_question (`+questionColumns+`)
		VALUES (:id, :church_id, :prompt, :answer, :reference, :created_at, :updated_at)`, rows)
	return errors.Wrap(err, "inserting quiz questions")
}

func (qr quizRepository) QueryQuestions(ctx context.Context, churchID string, filter *quiz.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]quiz.Question, error) {
	w := &where{}
	w.add("church_id = ?", churchID)
	if filter != nil && filter.Search != "" {
		val := likePattern(filter.Search)
		w.add("(prompt ILIKE ? OR answer ILIKE ?)", val, val)
	}

	var rows []questionRow
	q := `SELECT ` + questionColumns + ` FROM quiz_question` + w.String() + orderBy(ordering, questionOrdering, "created_at ASC, id ASC")
	if err := selectIn(ctx, qr.getExec(exec), &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying quiz questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.question())
	}
	return questions, nil
}

func (qr quizRepository) GetQuestionByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (quiz.Question, error) {
	if !validUUIDs(churchID, id) {
		return quiz.Question{}, quiz.ErrNotFound
	}
	var row questionRow
	err := sqlx.GetContext(ctx, qr.getExec(exec), &row,
		`SELECT `+questionColumns+` FROM quiz_question WHERE church_id = $1 AND id = $2`, churchID, id)
	if err != nil {
		return quiz.Question{}, trapNoRowsErr(err, quiz.ErrNotFound, "finding quiz question")
	}
	return row.question(), nil
}

func (qr quizRepository) UpdateQuestion(ctx context.Context, q quiz.Question, exec ...core.DBExecutor) (quiz.Question, error) {
	if !validUUIDs(q.ChurchID, q.ID) {
		return quiz.Question{}, quiz.ErrNotFound
	}
	row := toQuestionRow(q)
	var out questionRow
	err := sqlx.GetContext(ctx, qr.getExec(exec), &out, `
		UPDATE quiz_question SET prompt = $3, answer = $4, reference = $5, updated_at = $6
		WHERE church_id = $1 AND id = $2
		RETURNING `+questionColumns,
		row.ChurchID, row.ID, row.Prompt, row.Answer, row.Reference, row.UpdatedAt)
	if err != nil {
		return quiz.Question{}, trapNoRowsErr(err, quiz.ErrNotFound, "updating quiz question")
	}
	return out.question(), nil
}

func (qr quizRepository) DeleteQuestion(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	if !validUUIDs(churchID, id) {
		return quiz.ErrNotFound
	}
	res, err := qr.getExec(exec).ExecContext(ctx, `DELETE FROM quiz_question WHERE church_id = $1 AND id = $2`, churchID, id)
	if err != nil {
		return errors.Wrap(err, "deleting quiz question")
	}
	return mustAffect(res, quiz.ErrNotFound)
}
