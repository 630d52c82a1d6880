package inmemdb

import (
	"cmp"
	"context"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/qt"
)

var submissionOrdering = comparators[qt.Submission]{
	"date":       func(a, b qt.Submission) int { return a.Date.Compare(b.Date.Time) },
	"status":     func(a, b qt.Submission) int { return cmp.Compare(a.Status, b.Status) },
	"created_at": func(a, b qt.Submission) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b qt.Submission) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type qtRepository struct {
	db *DB
}

var _ qt.Repository = (*qtRepository)(nil)

func NewQTRepository(db *DB) qt.Repository {
	return &qtRepository{db: db}
}

func copySubmission(s qt.Submission) qt.Submission {
	if s.ReviewedAt != nil {
		at := *s.ReviewedAt
		s.ReviewedAt = &at
	}
	s.PhotoURL = ""
	return s
}

func (repo *qtRepository) GetSubmissionByDay(ctx context.Context, churchID, studentID string, date core.Date, exec ...core.DBExecutor) (qt.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, s := range repo.db.submissions {
		if s.ChurchID == churchID && s.StudentID == studentID && s.Date.Equal(date) {
			return copySubmission(*s), nil
		}
	}
	return qt.Submission{}, qt.ErrNotFound
}

func (repo *qtRepository) GetSubmissionByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (qt.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	s, ok := repo.db.submissions[id]
	if !ok || s.ChurchID != churchID {
		return qt.Submission{}, qt.ErrNotFound
	}
	return copySubmission(*s), nil
}

func (repo *qtRepository) CreateSubmission(ctx context.Context, s qt.Submission, exec ...core.DBExecutor) (qt.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	s = copySubmission(s)
	repo.db.submissions[s.ID] = &s
	return copySubmission(s), nil
}

func (repo *qtRepository) UpdateSubmission(ctx context.Context, s qt.Submission, exec ...core.DBExecutor) (qt.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	orig, ok := repo.db.submissions[s.ID]
	if !ok || orig.ChurchID != s.ChurchID {
		return qt.Submission{}, qt.ErrNotFound
	}
	s = copySubmission(s)
	orig.PhotoKey = s.PhotoKey
	orig.Status = s.Status
	orig.Note = s.Note
	orig.ReviewerID = s.ReviewerID
	orig.ReviewedAt = s.ReviewedAt
	orig.UpdatedAt = s.UpdatedAt
	return copySubmission(*orig), nil
}

func (repo *qtRepository) QuerySubmissions(ctx context.Context, churchID string, filter *qt.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]qt.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	subs := make([]qt.Submission, 0)
	for _, s := range repo.db.submissions {
		if s.ChurchID != churchID {
			continue
		}
		if filter != nil {
			if filter.Status != "" && s.Status != filter.Status {
				continue
			}
			if !filter.Date.IsZero() && !s.Date.Equal(filter.Date) {
				continue
			}
			if filter.StudentID != "" && s.StudentID != filter.StudentID {
				continue
			}
		}
		subs = append(subs, copySubmission(*s))
	}
	order(subs, ordering, submissionOrdering, desc("date"), desc("created_at"))
	return subs, nil
}

func (repo *qtRepository) PendingSummary(ctx context.Context, churchID string, exec ...core.DBExecutor) (qt.PendingSummary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var sum qt.PendingSummary
	for _, s := range repo.db.submissions {
		if s.ChurchID != churchID || s.Status != qt.StatusPending {
			continue
		}
		sum.Count++
		if sum.Oldest.IsZero() || s.Date.Before(sum.Oldest) {
			sum.Oldest = s.Date
		}
	}
	return sum, nil
}
