package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Fixture matches models.CreateMatchRequest structure
type Fixture struct {
	MatchDate   string `json:"match_date"`
	KickoffTime string `json:"kickoff_time,omitempty"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Competition string `json:"competition"`
	StatsLink   string `json:"stats_link,omitempty"`
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api/match/matches"
	}

	today := time.Now().Format("2006-01-02")
	fixtures := []Fixture{
		{MatchDate: today, KickoffTime: "15:00", HomeTeam: "Arsenal", AwayTeam: "Chelsea", Competition: "Premier League"},
		{MatchDate: today, KickoffTime: "17:30", HomeTeam: "Liverpool", AwayTeam: "Everton", Competition: "Premier League"},
		{MatchDate: today, KickoffTime: "20:00", HomeTeam: "Real Madrid", AwayTeam: "Barcelona", Competition: "La Liga"},
		{MatchDate: today, KickoffTime: "18:30", HomeTeam: "Bayern Munich", AwayTeam: "Borussia Dortmund", Competition: "Bundesliga"},
	}

	client := &http.Client{Timeout: 5 * time.Second}
	created, skipped := 0, 0

	for _, f := range fixtures {
		payload, err := json.Marshal(f)
		if err != nil {
			log.Fatalf("Failed to marshal JSON: %v", err)
		}

		resp, err := client.Post(apiURL, "application/json", bytes.NewBuffer(payload))
		if err != nil {
			log.Fatalf("Failed to send request: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			created++
			fmt.Printf("Created %s vs %s: %s\n", f.HomeTeam, f.AwayTeam, string(body))
		case http.StatusConflict:
			// Re-running the seeder is harmless; identity is derived from the fixture.
			skipped++
			fmt.Printf("Exists  %s vs %s\n", f.HomeTeam, f.AwayTeam)
		default:
			fmt.Printf("Failed  %s vs %s: %s %s\n", f.HomeTeam, f.AwayTeam, resp.Status, string(body))
		}
	}

	fmt.Printf("Done: %d created, %d already present\n", created, skipped)
}
