package inmemdb

import (
	"cmp"
	"context"
	"sort"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/team"
)

var teamOrdering = comparators[team.Team]{
	"name":       func(a, b team.Team) int { return cmp.Compare(a.Name, b.Name) },
	"color":      func(a, b team.Team) int { return cmp.Compare(a.Color, b.Color) },
	"created_at": func(a, b team.Team) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type teamRepository struct {
	db *DB
}

var _ team.Repository = (*teamRepository)(nil)

func NewTeamRepository(db *DB) team.Repository {
	return &teamRepository{db: db}
}

// withMembers returns a copy of t with its members. Callers hold db.mu.
func (repo *teamRepository) withMembers(t team.Team) team.Team {
	t.Members = make([]team.Member, 0)
	for _, s := range repo.db.students {
		if s.TeamID != nil && *s.TeamID == t.ID {
			t.Members = append(t.Members, team.Member{ID: s.ID, Name: s.Name})
		}
	}
	sort.Slice(t.Members, func(i, j int) bool {
		if t.Members[i].Name != t.Members[j].Name {
			return t.Members[i].Name < t.Members[j].Name
		}
		return t.Members[i].ID < t.Members[j].ID
	})
	return t
}

func (repo *teamRepository) NameExists(ctx context.Context, churchID, name, excludedID string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	for _, t := range repo.db.teams {
		if t.ChurchID == churchID && t.ID != excludedID && t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (repo *teamRepository) CreateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	t.Members = nil
	repo.db.teams[t.ID] = &t
	return repo.withMembers(t), nil
}

func (repo *teamRepository) QueryTeams(ctx context.Context, churchID string, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]team.Team, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	teams := make([]team.Team, 0)
	for _, t := range repo.db.teams {
		if t.ChurchID == churchID {
			teams = append(teams, repo.withMembers(*t))
		}
	}
	order(teams, ordering, teamOrdering, asc("name"))
	return teams, nil
}

func (repo *teamRepository) GetTeamByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	t, ok := repo.db.teams[id]
	if !ok || t.ChurchID != churchID {
		return team.Team{}, team.ErrNotFound
	}
	return repo.withMembers(*t), nil
}

func (repo *teamRepository) UpdateTeam(ctx context.Context, t team.Team, exec ...core.DBExecutor) (team.Team, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	orig, ok := repo.db.teams[t.ID]
	if !ok || orig.ChurchID != t.ChurchID {
		return team.Team{}, team.ErrNotFound
	}
	orig.Name = t.Name
	orig.Color = t.Color
	orig.UpdatedAt = t.UpdatedAt
	return repo.withMembers(*orig), nil
}

func (repo *teamRepository) DeleteTeam(ctx context.Context, churchID, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	t, ok := repo.db.teams[id]
	if !ok || t.ChurchID != churchID {
		return team.ErrNotFound
	}
	delete(repo.db.teams, id)
	for _, s := range repo.db.students {
		if s.TeamID != nil && *s.TeamID == id {
			s.TeamID = nil
		}
	}
	return nil
}

func (repo *teamRepository) CountStudents(ctx context.Context, churchID string, studentIDs []string, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	var n int
	for _, id := range studentIDs {
		if s, ok := repo.db.students[id]; ok && s.ChurchID == churchID {
			n++
		}
	}
	return n, nil
}

func (repo *teamRepository) ReplaceMembers(ctx context.Context, churchID, teamID string, studentIDs []string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	for _, s := range repo.db.students {
		if s.ChurchID == churchID && s.TeamID != nil && *s.TeamID == teamID {
			s.TeamID = nil
		}
	}
	for _, id := range studentIDs {
		if s, ok := repo.db.students[id]; ok && s.ChurchID == churchID {
			tid := teamID
			s.TeamID = &tid
		}
	}
	return nil
}
