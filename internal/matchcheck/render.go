package matchcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Render writes v in the given format. Table output understands
// Validation and Leaderboard; other values fall back to JSON.
func Render(w io.Writer, format string, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	switch x := v.(type) {
	case Validation:
		return renderValidation(w, x)
	case Leaderboard:
		return renderLeaderboard(w, x)
	default:
		return Render(w, FormatJSON, v)
	}
}

func renderValidation(w io.Writer, v Validation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	status := "FAILED"
	if v.ValidationPassed {
		status = "PASSED"
	}
	fmt.Fprintf(tw, "Match:\t%s\n", v.MatchID)
	if v.ResolvedMatchID != "" && v.ResolvedMatchID != v.MatchID {
		fmt.Fprintf(tw, "Resolved match:\t%s\n", v.ResolvedMatchID)
	}
	fmt.Fprintf(tw, "Validation:\t%s\n", status)
	fmt.Fprintf(tw, "With match:\t%.1f%%\n", v.PercentageWithMatch)
	fmt.Fprintf(tw, "Host error:\t%t\n", v.HostError)
	fmt.Fprintf(tw, "Time check:\t%s\n", v.TimeCheck)
	fmt.Fprintf(tw, "Map check:\t%s\n", v.MapCheck)
	fmt.Fprintf(tw, "Players with match:\t%s\n", strings.Join(v.PlayersWithMatch, ", "))
	fmt.Fprintf(tw, "Players without match:\t%s\n", strings.Join(v.PlayersWithoutMatch, ", "))
	if len(v.FailedFetches) > 0 {
		fmt.Fprintf(tw, "Failed fetches:\t%s\n", strings.Join(v.FailedFetches, ", "))
	}
	fmt.Fprintf(tw, "Message:\t%s\n", v.Message)
	return tw.Flush()
}

func renderLeaderboard(w io.Writer, lb Leaderboard) error {
	fmt.Fprintf(w, "Match %s on %s at %s (%d players)\n\n",
		lb.MatchID, lb.Map, lb.MatchStartTime.UTC().Format(time.RFC3339), lb.TotalPlayers)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Rank\tPlayer\tKills\tACS\t")
	for _, e := range lb.Leaderboard {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t\n", e.Rank, e.PlayerID, e.Kills, e.AverageCombatScore)
	}
	return tw.Flush()
}
