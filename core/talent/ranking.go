package talent

import "sort"

// RankStandings orders balances by balance desc then name and assigns standard competition ranks:
// tied balances share a rank and the next rank skips (1, 2, 2, 4).
func RankStandings(balances []StudentBalance) []Standing {
	sorted := make([]StudentBalance, len(balances))
	copy(sorted, balances)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Balance != sorted[j].Balance {
			return sorted[i].Balance > sorted[j].Balance
		}
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].StudentID < sorted[j].StudentID
	})

	standings := make([]Standing, 0, len(sorted))
	for i, b := range sorted {
		rank := i + 1
		if i > 0 && b.Balance == sorted[i-1].Balance {
			rank = standings[i-1].Rank
		}
		standings = append(standings, Standing{Rank: rank, StudentBalance: b})
	}
	return standings
}
