package model

// Team identifies one side of a match.
type Team string

const (
	TeamNone Team = ""
	TeamA    Team = "A"
	TeamB    Team = "B"
)

// Teams lists the playable teams in display order.
var Teams = []Team{TeamA, TeamB}

func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Opponent returns the other team, TeamNone for an invalid team.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNone
	}
}

// TeamForIndex applies the alternating-parity rule: even roster index A, odd B.
func TeamForIndex(index int) Team {
	if index%2 == 0 {
		return TeamA
	}
	return TeamB
}

// TeamCapacity returns the per-team player limit for a game mode.
func TeamCapacity(gameMode string) int {
	if gameMode == "2v2" {
		return 2
	}
	return 4
}
