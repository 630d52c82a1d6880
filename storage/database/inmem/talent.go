package inmemdb

import (
	"context"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/talent"
)

type talentRepository struct {
	db *DB
}

var _ talent.Repository = (*talentRepository)(nil)

func NewTalentRepository(db *DB) talent.Repository {
	return &talentRepository{db: db}
}

// LockStudent only checks the student exists: WithinTx already serializes ledger writes.
func (repo *talentRepository) LockStudent(ctx context.Context, churchID, studentID string, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	if s, ok := repo.db.students[studentID]; !ok || s.ChurchID != churchID {
		return talent.ErrStudentNotFound
	}
	return nil
}

func (repo *talentRepository) CreateEntries(ctx context.Context, entries []talent.Entry, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, e := range entries {
		if s, ok := repo.db.students[e.StudentID]; !ok || s.ChurchID != e.ChurchID {
			return talent.ErrStudentNotFound
		}
	}
	repo.db.entries = append(repo.db.entries, entries...)
	return nil
}

func (repo *talentRepository) Balance(ctx context.Context, churchID, studentID string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var sum int
	for _, e := range repo.db.entries {
		if e.ChurchID == churchID && e.StudentID == studentID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (repo *talentRepository) NetByRef(ctx context.Context, refID, kind string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var sum int
	for _, e := range repo.db.entries {
		if e.RefID == refID && e.Kind == kind {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (repo *talentRepository) QueryEntries(ctx context.Context, churchID, studentID string, limit int, exec ...core.DBExecutor) ([]talent.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	entries := make([]talent.Entry, 0)
	// entries are appended in creation order
	for i := len(repo.db.entries) - 1; i >= 0; i-- {
		e := repo.db.entries[i]
		if e.ChurchID != churchID || e.StudentID != studentID {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (repo *talentRepository) QueryBalances(ctx context.Context, churchID string, exec ...core.DBExecutor) ([]talent.StudentBalance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sums := make(map[string]int)
	for _, e := range repo.db.entries {
		if e.ChurchID == churchID {
			sums[e.StudentID] += e.Amount
		}
	}
	balances := make([]talent.StudentBalance, 0)
	for _, s := range repo.db.students {
		if s.ChurchID != churchID || !s.IsActive {
			continue
		}
		sb := talent.StudentBalance{StudentID: s.ID, Name: s.Name, Balance: sums[s.ID]}
		if s.TeamID != nil {
			tid := *s.TeamID
			sb.TeamID = &tid
		}
		balances = append(balances, sb)
	}
	return balances, nil
}
