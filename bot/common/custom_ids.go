package common

import (
	"fmt"
	"strconv"
	"strings"

	"matchmaker/domain/entities"
)

// Component custom ID prefixes
const (
	PrefixVote         = "vote_"
	PrefixPick         = "pick_"
	PrefixResult       = "result_"
	PrefixDispute      = "dispute_"
	PrefixAdminConfirm = "admin_confirm_"
	PrefixQueue        = "queue_"

	QueueSelectID = "queue_select"
	QueueLeaveID  = "queue_leave"
	queueJoinID   = "queue_join_"
)

// VoteButtonID identifies a vote button: vote_<session>_<index>
func VoteButtonID(sessionID string, index int) string {
	return fmt.Sprintf("%s%s_%d", PrefixVote, sessionID, index)
}

// ParseVoteButtonID is the inverse of VoteButtonID
func ParseVoteButtonID(customID string) (string, int, error) {
	return parseKeyAndIndex(customID, PrefixVote)
}

// PickButtonID identifies a draft pick button: pick_<turn>_<position>
func PickButtonID(turnID string, position int) string {
	return fmt.Sprintf("%s%s_%d", PrefixPick, turnID, position)
}

// ParsePickButtonID is the inverse of PickButtonID
func ParsePickButtonID(customID string) (string, int, error) {
	return parseKeyAndIndex(customID, PrefixPick)
}

// ResultButtonID identifies a "Team X won" button: result_<match>_<side>
func ResultButtonID(matchID int64, side entities.TeamSide) string {
	return fmt.Sprintf("%s%d_%s", PrefixResult, matchID, side)
}

// ParseResultButtonID is the inverse of ResultButtonID
func ParseResultButtonID(customID string) (int64, entities.TeamSide, error) {
	return parseMatchAndSide(customID, PrefixResult)
}

// AdminConfirmButtonID identifies an admin "Confirm Team X Win" button
func AdminConfirmButtonID(matchID int64, side entities.TeamSide) string {
	return fmt.Sprintf("%s%d_%s", PrefixAdminConfirm, matchID, side)
}

// ParseAdminConfirmButtonID is the inverse of AdminConfirmButtonID
func ParseAdminConfirmButtonID(customID string) (int64, entities.TeamSide, error) {
	return parseMatchAndSide(customID, PrefixAdminConfirm)
}

// DisputeButtonID identifies the dispute button of a match
func DisputeButtonID(matchID int64) string {
	return fmt.Sprintf("%s%d", PrefixDispute, matchID)
}

// ParseDisputeButtonID is the inverse of DisputeButtonID
func ParseDisputeButtonID(customID string) (int64, error) {
	raw, ok := strings.CutPrefix(customID, PrefixDispute)
	if !ok {
		return 0, fmt.Errorf("custom id %q is not a dispute button", customID)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// QueueJoinButtonID identifies the join button of a queue panel
func QueueJoinButtonID(queueType string) string {
	return queueJoinID + queueType
}

// ParseQueueJoinButtonID is the inverse of QueueJoinButtonID
func ParseQueueJoinButtonID(customID string) (string, bool) {
	return strings.CutPrefix(customID, queueJoinID)
}

func parseKeyAndIndex(customID, prefix string) (string, int, error) {
	raw, ok := strings.CutPrefix(customID, prefix)
	if !ok {
		return "", 0, fmt.Errorf("custom id %q lacks prefix %q", customID, prefix)
	}
	idx := strings.LastIndexByte(raw, '_')
	if idx <= 0 {
		return "", 0, fmt.Errorf("malformed custom id %q", customID)
	}
	position, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed custom id %q: %w", customID, err)
	}
	return raw[:idx], position, nil
}

func parseMatchAndSide(customID, prefix string) (int64, entities.TeamSide, error) {
	raw, ok := strings.CutPrefix(customID, prefix)
	if !ok {
		return 0, "", fmt.Errorf("custom id %q lacks prefix %q", customID, prefix)
	}
	idPart, sidePart, ok := strings.Cut(raw, "_")
	if !ok {
		return 0, "", fmt.Errorf("malformed custom id %q", customID)
	}
	matchID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed custom id %q: %w", customID, err)
	}
	side, err := entities.ParseTeamSide(sidePart)
	if err != nil {
		return 0, "", err
	}
	return matchID, side, nil
}
