// matchctl is an operator CLI for the match analysis API. It drives the
// batch runners and inspects match records over HTTP; all state lives in
// the service.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var apiBase string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "matchctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "matchctl",
		Short:         "Operate the football match analysis service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&apiBase, "api", envOr("MATCHCTL_API", "http://localhost:8080"), "base URL of the analysis API")

	rootCmd.AddCommand(
		newRunPredictionsCmd(),
		newRunPostMatchCmd(),
		newListCmd(),
	)

	return rootCmd
}

func newRunPredictionsCmd() *cobra.Command {
	var date string
	var force bool

	cmd := &cobra.Command{
		Use:   "run-predictions",
		Short: "Run the pre-match prediction batch",
		Long: `Run pre-match predictions for all eligible matches.

Without --date the whole backlog of pending and retry-eligible matches is
processed. With --force, matches that already carry a prediction are rerun
and their stored prediction is overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if date != "" {
				q.Set("date", date)
			}
			if force {
				q.Set("force", "true")
			}
			return postSummary(cmd.OutOrStdout(), "/api/match/run-predictions", q)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "restrict the run to one day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&force, "force", false, "rerun matches that already have a prediction")

	return cmd
}

func newRunPostMatchCmd() *cobra.Command {
	var matchID string
	var force bool

	cmd := &cobra.Command{
		Use:   "run-post-match [date]",
		Short: "Run the post-match analysis batch",
		Long: `Run post-match analysis for every unanalyzed match of a day, or for a
single match with --match.

The date batch processes matches regardless of their pre-match state and
with --force reruns already-analyzed matches. A single-match run requires
a completed prediction unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if force {
				q.Set("force", "true")
			}
			if matchID != "" {
				if len(args) > 0 {
					return fmt.Errorf("give either a date or --match, not both")
				}
				return postSummary(cmd.OutOrStdout(), "/api/match/run-post-match-analysis/match/"+url.PathEscape(matchID), q)
			}
			if len(args) == 0 {
				return fmt.Errorf("a date argument or --match is required")
			}
			return postSummary(cmd.OutOrStdout(), "/api/match/run-post-match-analysis/"+url.PathEscape(args[0]), q)
		},
	}

	cmd.Flags().StringVar(&matchID, "match", "", "analyze a single match by id")
	cmd.Flags().BoolVar(&force, "force", false, "analyze even without a prediction, overwriting an existing analysis")

	return cmd
}

func newListCmd() *cobra.Command {
	var date, status, home, away, competition, matchID string
	var limit, skip int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List match records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			setIf := func(key, val string) {
				if val != "" {
					q.Set(key, val)
				}
			}
			setIf("target_date", date)
			setIf("status", status)
			setIf("home_team", home)
			setIf("away_team", away)
			setIf("competition", competition)
			setIf("match_id", matchID)
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}
			if skip > 0 {
				q.Set("skip", fmt.Sprint(skip))
			}

			body, err := call(http.MethodGet, "/api/match/results", q)
			if err != nil {
				return err
			}

			if jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}
			return printMatchTable(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "filter by match date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "filter by lifecycle status")
	cmd.Flags().StringVar(&home, "home", "", "filter by home team")
	cmd.Flags().StringVar(&away, "away", "", "filter by away team")
	cmd.Flags().StringVar(&competition, "competition", "", "filter by competition")
	cmd.Flags().StringVar(&matchID, "match", "", "fetch a single match by id")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&skip, "skip", 0, "page offset")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output raw JSON")

	return cmd
}

type matchRow struct {
	MatchID     string `json:"match_id"`
	MatchDate   string `json:"match_date"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Competition string `json:"competition"`
	Status      string `json:"status"`
}

func printMatchTable(w io.Writer, body []byte) error {
	var resp struct {
		Matches []matchRow `json:"matches"`
		Count   int        `json:"count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	for _, m := range resp.Matches {
		fmt.Fprintf(w, "%s  %s  %-28s %-20s %s\n",
			m.MatchID, m.MatchDate, m.HomeTeam+" vs "+m.AwayTeam, m.Competition, m.Status)
	}
	fmt.Fprintf(w, "%d match(es)\n", resp.Count)
	return nil
}

func postSummary(w io.Writer, path string, q url.Values) error {
	body, err := call(http.MethodPost, path, q)
	if err != nil {
		return err
	}

	var summary struct {
		Attempted int `json:"attempted"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Skipped   int `json:"skipped"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	fmt.Fprintf(w, "attempted %d, succeeded %d, failed %d, skipped %d\n",
		summary.Attempted, summary.Succeeded, summary.Failed, summary.Skipped)
	return nil
}

func call(method, path string, q url.Values) ([]byte, error) {
	u := strings.TrimSuffix(apiBase, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return nil, err
	}

	// Batch runs block until the batch completes.
	client := &http.Client{Timeout: 15 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
