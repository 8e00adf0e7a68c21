package debug

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"matchmaker/domain/entities"
)

// Run executes a one-shot inspection command against a running bot
func Run(out io.Writer, port int, args []string) error {
	client := NewDebugClient(port)
	if err := client.CheckConnection(); err != nil {
		return err
	}
	return run(out, client, args)
}

func run(out io.Writer, client *DebugClient, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: matchmaker debug [queues|runs|matches <guild_id> [pending|recent]]")
	}

	switch args[0] {
	case "queues":
		return printQueues(out, client)
	case "runs":
		return printRuns(out, client)
	case "matches":
		if len(args) < 2 {
			return fmt.Errorf("usage: matchmaker debug matches <guild_id> [pending|recent]")
		}
		guildID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid guild id %q", args[1])
		}
		status := "pending"
		if len(args) > 2 {
			status = args[2]
		}
		return printMatches(out, client, guildID, status)
	default:
		return fmt.Errorf("unknown debug command: %s", args[0])
	}
}

func printQueues(out io.Writer, client *DebugClient) error {
	queues, err := client.Queues()
	if err != nil {
		return err
	}
	if len(queues) == 0 {
		fmt.Fprintln(out, "No guild has queued players yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GUILD\tQUEUE\tCOUNT\tPLAYERS")
	for _, info := range queues {
		names := make([]string, 0, len(info.Counts))
		for name := range info.Counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			players := make([]string, len(info.Waiting[name]))
			for i, entry := range info.Waiting[name] {
				players[i] = entry.DisplayName
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", info.GuildID, name, info.Counts[name], strings.Join(players, ", "))
		}
	}
	return w.Flush()
}

func printRuns(out io.Writer, client *DebugClient) error {
	runs, err := client.ActiveRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No active match runs")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tGUILD\tQUEUE\tSTATE\tMATCH\tAGE")
	for _, run := range runs {
		match := "-"
		if run.MatchID != 0 {
			match = fmt.Sprintf("#%d", run.MatchID)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			run.ID, run.GuildID, run.QueueType, run.State, match, time.Since(run.StartedAt).Round(time.Second))
	}
	return w.Flush()
}

func printMatches(out io.Writer, client *DebugClient, guildID int64, status string) error {
	matches, err := client.StoredMatches(guildID, status)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintf(out, "No %s matches in guild %d\n", status, guildID)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATCH\tQUEUE\tMAP\tWINNER\tDISPUTED\tCREATED")
	for _, match := range matches {
		fmt.Fprintf(w, "#%d\t%s\t%s\t%s\t%t\t%s\n",
			match.ID, match.QueueType, match.MapName, winnerLabel(match), match.Disputed, match.CreatedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func winnerLabel(match *entities.Match) string {
	if match.WinningTeam == nil {
		return "pending"
	}
	return "Team " + string(*match.WinningTeam)
}
