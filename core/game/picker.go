package game

import (
	"math/rand"

	"github.com/kat-co/vala"
)

type (
	PickStudent struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	PickTeam struct {
		ID     string  `json:"id,omitempty"`
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
	}

	// WheelSlot is one segment of the roulette shown for a draw.
	WheelSlot struct {
		Team   int     `json:"team"` // index in PickResult.Teams
		Weight float64 `json:"weight"`
	}

	Draw struct {
		Student PickStudent `json:"student"`
		Wheel   []WheelSlot `json:"wheel"`
		Team    int         `json:"team"`
	}

	PickedTeam struct {
		ID      string        `json:"id,omitempty"`
		Name    string        `json:"name"`
		Members []PickStudent `json:"members"`
	}

	PickResult struct {
		Seed    int64        `json:"seed"`
		Draws   []Draw       `json:"draws"`
		Teams   []PickedTeam `json:"teams"`
		Applied bool         `json:"applied"`
	}
)

// Pick splits students into teams with a weighted roulette.
// Students are shuffled, then each one is drawn into one of the currently smallest teams,
// the weights only choosing among those, so final team sizes differ by at most one.
// The same seed always gives the same result.
func Pick(students []PickStudent, teams []PickTeam, seed int64) (res PickResult, err error) {
	if err = vala.BeginValidation().Validate(
		vala.GreaterThan(len(teams), 1, "teams"),
		positiveWeights(teams),
	).Check(); err != nil {
		return PickResult{}, err
	}

	rng := rand.New(rand.NewSource(seed))

	order := make([]PickStudent, len(students))
	copy(order, students)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	res = PickResult{
		Seed:  seed,
		Draws: make([]Draw, 0, len(order)),
		Teams: make([]PickedTeam, len(teams)),
	}
	for i, t := range teams {
		res.Teams[i] = PickedTeam{ID: t.ID, Name: t.Name, Members: []PickStudent{}}
	}

	for _, s := range order {
		wheel := eligibleWheel(res.Teams, teams)
		winner := spin(rng, wheel)
		res.Teams[winner].Members = append(res.Teams[winner].Members, s)
		res.Draws = append(res.Draws, Draw{Student: s, Wheel: wheel, Team: winner})
	}
	return res, nil
}

// eligibleWheel returns the slots of the teams having the smallest current size.
func eligibleWheel(picked []PickedTeam, teams []PickTeam) []WheelSlot {
	minSize := -1
	for _, t := range picked {
		if minSize < 0 || len(t.Members) < minSize {
			minSize = len(t.Members)
		}
	}
	wheel := make([]WheelSlot, 0, len(picked))
	for i, t := range picked {
		if len(t.Members) == minSize {
			wheel = append(wheel, WheelSlot{Team: i, Weight: teams[i].Weight})
		}
	}
	return wheel
}

// spin picks a slot with probability proportional to its weight.
func spin(rng *rand.Rand, wheel []WheelSlot) int {
	var total float64
	for _, slot := range wheel {
		total += slot.Weight
	}
	r := rng.Float64() * total
	for _, slot := range wheel {
		if r < slot.Weight {
			return slot.Team
		}
		r -= slot.Weight
	}
	return wheel[len(wheel)-1].Team
}

func positiveWeights(teams []PickTeam) vala.Checker {
	return func() (bool, string) {
		for _, t := range teams {
			if t.Weight <= 0 {
				return false, "team weights must be positive"
			}
		}
		return true, ""
	}
}
