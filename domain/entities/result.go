package entities

// Reporter identifies who reports a match result. Admin is set only by
// callers that verified administrator permission.
type Reporter struct {
	DiscordID int64
	Admin     bool
}

// RatingChange is the ledger entry for one participant of a resolved match
type RatingChange struct {
	PlayerID  int64
	Username  string
	Side      TeamSide
	Won       bool
	OldRating int64
	NewRating int64
	Delta     int64
}

// ResultOutcome is returned when a match result is recorded
type ResultOutcome struct {
	Match              *Match
	WinningTeam        TeamSide
	Changes            []RatingChange
	RoleSync           []RoleSyncInstruction
	RefreshLeaderboard bool
}

// DisputeTicket is the admin review request created by a dispute
type DisputeTicket struct {
	Match      *Match
	DisputerID int64
}
