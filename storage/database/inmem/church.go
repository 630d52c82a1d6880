package inmemdb

import (
	"cmp"
	"context"
	"time"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
)

type churchRepository struct {
	db *DB
}

var _ church.Repository = (*churchRepository)(nil)

func NewChurchRepository(db *DB) church.Repository {
	return &churchRepository{db: db}
}

func (repo *churchRepository) CodeExists(ctx context.Context, code string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, ch := range repo.db.churches {
		if ch.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (repo *churchRepository) CreateChurch(ctx context.Context, ch church.Church, exec ...core.DBExecutor) (church.Church, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.churches[ch.ID] = &ch
	return ch, nil
}

func (repo *churchRepository) QueryAllChurches(ctx context.Context, exec ...core.DBExecutor) ([]church.Church, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	churches := make([]church.Church, 0, len(repo.db.churches))
	for _, ch := range repo.db.churches {
		churches = append(churches, *ch)
	}
	order(churches, nil, comparators[church.Church]{
		"code": func(a, b church.Church) int { return cmp.Compare(a.Code, b.Code) },
	}, asc("code"))
	return churches, nil
}

func (repo *churchRepository) GetChurchByID(ctx context.Context, id string, exec ...core.DBExecutor) (church.Church, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	if ch, ok := repo.db.churches[id]; ok {
		return *ch, nil
	}
	return church.Church{}, church.ErrNotFound
}

func (repo *churchRepository) GetChurchByCode(ctx context.Context, code string, exec ...core.DBExecutor) (church.Church, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, ch := range repo.db.churches {
		if ch.Code == code {
			return *ch, nil
		}
	}
	return church.Church{}, church.ErrNotFound
}

func (repo *churchRepository) UpdateChurchSettings(ctx context.Context, id string, settings church.Settings, updatedAt time.Time, exec ...core.DBExecutor) (church.Church, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	ch, ok := repo.db.churches[id]
	if !ok {
		return church.Church{}, church.ErrNotFound
	}
	ch.Settings = settings
	ch.UpdatedAt = updatedAt
	return *ch, nil
}
