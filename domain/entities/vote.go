package entities

import "time"

// VoteResult is the outcome of a tallied vote session
type VoteResult struct {
	SessionID string
	Index     int
	Candidate string
	Votes     int
	// TotalVotes is the number of voters with a counted ballot
	TotalVotes int
	// Tied is set when the winner was drawn among several leaders
	Tied bool
	// Fallback is set when nobody voted and the winner was drawn from all candidates
	Fallback bool
}

// VoteInfo describes an open vote session
type VoteInfo struct {
	SessionID  string
	Title      string
	Candidates []string
	Deadline   time.Time
}
