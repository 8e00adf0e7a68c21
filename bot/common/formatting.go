package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatRatingDelta renders a signed rating change, e.g. "+25" or "-25"
func FormatRatingDelta(delta int64) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return strconv.FormatInt(delta, 10)
}

// FormatWinRate renders a percentage with one decimal
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// Mention renders a user mention
func Mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// MentionList renders one mention per line
func MentionList(userIDs []int64) string {
	if len(userIDs) == 0 {
		return "-"
	}
	lines := make([]string, len(userIDs))
	for i, id := range userIDs {
		lines[i] = Mention(id)
	}
	return strings.Join(lines, "\n")
}

// FormatDiscordTimestamp formats a time as a Discord timestamp shown in the reader's timezone.
// Format types: "t", "T", "d", "D", "f", "F", "R" (relative)
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// ParseSnowflake parses a Discord ID
func ParseSnowflake(id string) (int64, error) {
	value, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid discord id %q: %w", id, err)
	}
	return value, nil
}

// Snowflake renders an ID the way the Discord API expects it
func Snowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}
