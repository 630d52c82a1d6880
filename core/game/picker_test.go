package game

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeStudents(n int) []PickStudent {
	students := make([]PickStudent, n)
	for i := range students {
		students[i] = PickStudent{ID: fmt.Sprintf("s%02d", i), Name: fmt.Sprintf("Student %02d", i)}
	}
	return students
}

func TestPick(t *testing.T) {
	tests := []struct {
		name     string
		students int
		teams    []PickTeam
		wantErr  bool
	}{
		{name: "one team", students: 4, teams: []PickTeam{{Name: "A", Weight: 1}}, wantErr: true},
		{name: "zero weight", students: 4, teams: []PickTeam{{Name: "A", Weight: 1}, {Name: "B"}}, wantErr: true},
		{name: "no students", students: 0, teams: []PickTeam{{Name: "A", Weight: 1}, {Name: "B", Weight: 1}}},
		{name: "even split", students: 12, teams: []PickTeam{{Name: "A", Weight: 1}, {Name: "B", Weight: 1}, {Name: "C", Weight: 1}}},
		{name: "uneven split", students: 11, teams: []PickTeam{{Name: "A", Weight: 1}, {Name: "B", Weight: 1}, {Name: "C", Weight: 1}}},
		{name: "heavy weight", students: 7, teams: []PickTeam{{Name: "A", Weight: 100}, {Name: "B", Weight: 0.5}}},
		{name: "fewer students than teams", students: 2, teams: []PickTeam{{Name: "A", Weight: 1}, {Name: "B", Weight: 1}, {Name: "C", Weight: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Pick(makeStudents(tt.students), tt.teams, 42)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.Draws, tt.students)
			require.Len(t, res.Teams, len(tt.teams))

			minSize, maxSize, total := tt.students, 0, 0
			seen := make(map[string]bool)
			for _, team := range res.Teams {
				if len(team.Members) < minSize {
					minSize = len(team.Members)
				}
				if len(team.Members) > maxSize {
					maxSize = len(team.Members)
				}
				total += len(team.Members)
				for _, m := range team.Members {
					assert.False(t, seen[m.ID], "student picked twice: %s", m.ID)
					seen[m.ID] = true
				}
			}
			assert.Equal(t, tt.students, total)
			assert.LessOrEqual(t, maxSize-minSize, 1)
		})
	}
}

func TestPickDraws(t *testing.T) {
	teams := []PickTeam{{Name: "A", Weight: 1}, {Name: "B", Weight: 2}, {Name: "C", Weight: 3}}
	res, err := Pick(makeStudents(9), teams, 7)
	require.NoError(t, err)

	sizes := make([]int, len(teams))
	for _, d := range res.Draws {
		// the wheel only holds the currently smallest teams
		minSize := sizes[0]
		for _, s := range sizes {
			if s < minSize {
				minSize = s
			}
		}
		var inWheel bool
		for _, slot := range d.Wheel {
			assert.Equal(t, minSize, sizes[slot.Team])
			assert.Equal(t, teams[slot.Team].Weight, slot.Weight)
			if slot.Team == d.Team {
				inWheel = true
			}
		}
		assert.True(t, inWheel, "winner %d not in wheel", d.Team)
		sizes[d.Team]++
	}
}

func TestPickIsDeterministic(t *testing.T) {
	teams := []PickTeam{{Name: "A", Weight: 1}, {Name: "B", Weight: 1}, {Name: "C", Weight: 2}}
	first, err := Pick(makeStudents(10), teams, 2024)
	require.NoError(t, err)
	second, err := Pick(makeStudents(10), teams, 2024)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Pick() with the same seed mismatch (-first +second):\n%s", diff)
	}
}
