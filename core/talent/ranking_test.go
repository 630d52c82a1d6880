package talent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRankStandings(t *testing.T) {
	tests := []struct {
		name     string
		balances []StudentBalance
		want     []Standing
	}{
		{name: "empty", balances: nil, want: []Standing{}},
		{
			name: "ties share a rank and the next one skips",
			balances: []StudentBalance{
				{StudentID: "s4", Name: "Dana", Balance: 3},
				{StudentID: "s1", Name: "Ari", Balance: 10},
				{StudentID: "s3", Name: "Chul", Balance: 7},
				{StudentID: "s2", Name: "Bora", Balance: 7},
			},
			want: []Standing{
				{Rank: 1, StudentBalance: StudentBalance{StudentID: "s1", Name: "Ari", Balance: 10}},
				{Rank: 2, StudentBalance: StudentBalance{StudentID: "s2", Name: "Bora", Balance: 7}},
				{Rank: 2, StudentBalance: StudentBalance{StudentID: "s3", Name: "Chul", Balance: 7}},
				{Rank: 4, StudentBalance: StudentBalance{StudentID: "s4", Name: "Dana", Balance: 3}},
			},
		},
		{
			name: "all tied",
			balances: []StudentBalance{
				{StudentID: "b", Name: "B", Balance: 0},
				{StudentID: "a", Name: "A", Balance: 0},
				{StudentID: "c", Name: "C", Balance: 0},
			},
			want: []Standing{
				{Rank: 1, StudentBalance: StudentBalance{StudentID: "a", Name: "A"}},
				{Rank: 1, StudentBalance: StudentBalance{StudentID: "b", Name: "B"}},
				{Rank: 1, StudentBalance: StudentBalance{StudentID: "c", Name: "C"}},
			},
		},
		{
			name: "triple tie in the middle",
			balances: []StudentBalance{
				{StudentID: "1", Name: "E", Balance: 5},
				{StudentID: "2", Name: "D", Balance: 4},
				{StudentID: "3", Name: "C", Balance: 4},
				{StudentID: "4", Name: "B", Balance: 4},
				{StudentID: "5", Name: "A", Balance: 1},
			},
			want: []Standing{
				{Rank: 1, StudentBalance: StudentBalance{StudentID: "1", Name: "E", Balance: 5}},
				{Rank: 2, StudentBalance: StudentBalance{StudentID: "4", Name: "B", Balance: 4}},
				{Rank: 2, StudentBalance: StudentBalance{StudentID: "3", Name: "C", Balance: 4}},
				{Rank: 2, StudentBalance: StudentBalance{StudentID: "2", Name: "D", Balance: 4}},
				{Rank: 5, StudentBalance: StudentBalance{StudentID: "5", Name: "A", Balance: 1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankStandings(tt.balances)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RankStandings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
