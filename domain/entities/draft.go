package entities

// PickStyle selects how teams are formed
type PickStyle string

const (
	PickStyleCaptains PickStyle = "Team Pick (captains choose)"
	PickStyleRandom   PickStyle = "Random Teams"
)

// PickStyleOptions returns the pick-style vote candidates in display order
func PickStyleOptions() []string {
	return []string{string(PickStyleCaptains), string(PickStyleRandom)}
}

// DraftResult is the outcome of team formation
type DraftResult struct {
	TeamA []int64
	TeamB []int64
	Picks []DraftPick
}

// DraftPick records one assignment made during the draft
type DraftPick struct {
	Turn     int
	Side     TeamSide
	Captain  int64
	PlayerID int64
	Auto     bool
}

// Assign appends a pick to the given side's roster and the pick log
func (d *DraftResult) Assign(side TeamSide, pick DraftPick) {
	if side == TeamA {
		d.TeamA = append(d.TeamA, pick.PlayerID)
	} else {
		d.TeamB = append(d.TeamB, pick.PlayerID)
	}
	d.Picks = append(d.Picks, pick)
}
