package quiz

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/dalant/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("question")
	ErrEmptyImport   = errors.New("no questions found")
	errInvalidImport = errors.New("invalid question file")
)

type (
	Repository interface {
		CreateQuestions(ctx context.Context, questions []Question, exec ...core.DBExecutor) error
		// QueryQuestions applies a case-insensitive match of QueryFilter.Search on Question.Prompt and Question.Answer.
		QueryQuestions(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Question, error)
		GetQuestionByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (Question, error)
		UpdateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		DeleteQuestion(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func newQuestion(churchID string, nq NewQuestion) Question {
	now := core.NowFunc().UTC()
	return Question{
		ID:        uuid.New().String(),
		ChurchID:  churchID,
		Prompt:    nq.Prompt,
		Answer:    nq.Answer,
		Reference: nq.Reference,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (svc *Service) Create(ctx context.Context, churchID string, nq NewQuestion) (Question, error) {
	q := newQuestion(churchID, nq)
	if err := svc.repo.CreateQuestions(ctx, []Question{q}); err != nil {
		return Question{}, errors.Wrap(err, "creating question")
	}
	return q, nil
}

func (svc *Service) Query(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, churchID, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, churchID, id string) (Question, error) {
	return svc.repo.GetQuestionByID(ctx, churchID, id)
}

func (svc *Service) Update(ctx context.Context, orig Question, uq UpdateQuestion) (Question, error) {
	q := orig
	if uq.Prompt != "" {
		q.Prompt = uq.Prompt
	}
	if uq.Answer != "" {
		q.Answer = uq.Answer
	}
	if uq.Reference != nil {
		q.Reference = *uq.Reference
	}
	q.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) Delete(ctx context.Context, churchID, id string) error {
	return svc.repo.DeleteQuestion(ctx, churchID, id)
}

type importFile struct {
	Questions []NewQuestion `yaml:"questions"`
}

// ParseImport reads questions from YAML, either a top-level list or a document with a `questions` list.
func ParseImport(r io.Reader) ([]NewQuestion, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading question file")
	}

	var list []NewQuestion
	if err = yaml.Unmarshal(data, &list); err != nil {
		var doc importFile
		if dErr := yaml.Unmarshal(data, &doc); dErr != nil {
			return nil, errors.Wrap(errInvalidImport, dErr.Error())
		}
		list = doc.Questions
	}
	if len(list) == 0 {
		return nil, ErrEmptyImport
	}
	return list, nil
}

// Import validates and saves every question read from r, all or nothing. It returns the number imported.
func (svc *Service) Import(ctx context.Context, churchID string, r io.Reader, validate *validator.Validate) (int, error) {
	list, err := ParseImport(r)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}

	questions := make([]Question, 0, len(list))
	for i := range list {
		if err = list[i].Validate(validate); err != nil {
			return 0, errors.Wrap(err, fmt.Sprintf("question #%d", i+1))
		}
		questions = append(questions, newQuestion(churchID, list[i]))
	}

	err = svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		return svc.repo.CreateQuestions(ctx, questions, exec)
	})
	if err != nil {
		return 0, errors.Wrap(err, "creating questions")
	}
	return len(questions), nil
}
