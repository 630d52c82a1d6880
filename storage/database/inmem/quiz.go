package inmemdb

import (
	"cmp"
	"context"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/quiz"
)

var questionOrdering = comparators[quiz.Question]{
	"prompt":     func(a, b quiz.Question) int { return cmp.Compare(a.Prompt, b.Prompt) },
	"reference":  func(a, b quiz.Question) int { return cmp.Compare(a.Reference, b.Reference) },
	"created_at": func(a, b quiz.Question) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"id":         func(a, b quiz.Question) int { return cmp.Compare(a.ID, b.ID) },
}

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuestions(ctx context.Context, questions []quiz.Question, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, q := range questions {
		q := q
		repo.db.questions[q.ID] = &q
	}
	return nil
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, churchID string, filter *quiz.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]quiz.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	questions := make([]quiz.Question, 0)
	for _, q := range repo.db.questions {
		if q.ChurchID != churchID {
			continue
		}
		if filter != nil && filter.Search != "" && !containsFold(filter.Search, q.Prompt, q.Answer) {
			continue
		}
		questions = append(questions, *q)
	}
	order(questions, ordering, questionOrdering, asc("created_at"), asc("id"))
	return questions, nil
}

func (repo *quizRepository) GetQuestionByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (quiz.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	q, ok := repo.db.questions[id]
	if !ok || q.ChurchID != churchID {
		return quiz.Question{}, quiz.ErrNotFound
	}
	return *q, nil
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, q quiz.Question, exec ...core.DBExecutor) (quiz.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	orig, ok := repo.db.questions[q.ID]
	if !ok || orig.ChurchID != q.ChurchID {
		return quiz.Question{}, quiz.ErrNotFound
	}
	orig.Prompt = q.Prompt
	orig.Answer = q.Answer
	orig.Reference = q.Reference
	orig.UpdatedAt = q.UpdatedAt
	return *orig, nil
}

func (repo *quizRepository) DeleteQuestion(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	q, ok := repo.db.questions[id]
	if !ok || q.ChurchID != churchID {
		return quiz.ErrNotFound
	}
	delete(repo.db.questions, id)
	return nil
}
