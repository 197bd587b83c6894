package analyzer

import (
	"fmt"

	"github.com/matchsight/analysis-api/internal/models"
)

// BuildPredictionPrompt composes the pre-match prompt from fixture context.
func BuildPredictionPrompt(rec models.MatchRecord) string {
	prompt := fmt.Sprintf(
		"You are a football analyst. Write a pre-match prediction for the following fixture.\n\n"+
			"Competition: %s\nDate: %s\nHome team: %s\nAway team: %s\n",
		rec.Competition, rec.MatchDate.Format(models.DateLayout), rec.HomeTeam, rec.AwayTeam)
	if rec.KickoffTime != "" {
		prompt += fmt.Sprintf("Kickoff: %s\n", rec.KickoffTime)
	}
	if rec.StatsLink != "" {
		prompt += fmt.Sprintf("Stats reference: %s\n", rec.StatsLink)
	}
	prompt += "\nCover the likely outcome, expected scoreline, and the key factors behind your call."
	return prompt
}

// BuildPostMatchPrompt composes the post-match prompt. When a pre-match
// prediction exists it is included so the analysis can evaluate it; without
// one the analysis stands on its own.
func BuildPostMatchPrompt(rec models.MatchRecord) string {
	prompt := fmt.Sprintf(
		"You are a football analyst. Write a post-match analysis for the following fixture.\n\n"+
			"Competition: %s\nDate: %s\nHome team: %s\nAway team: %s\n",
		rec.Competition, rec.MatchDate.Format(models.DateLayout), rec.HomeTeam, rec.AwayTeam)
	if rec.StatsLink != "" {
		prompt += fmt.Sprintf("Stats reference: %s\n", rec.StatsLink)
	}
	if rec.PredictionContent != "" {
		prompt += fmt.Sprintf("\nPRE-MATCH PREDICTION:\n%s\n\nEvaluate how the prediction held up against the actual result.", rec.PredictionContent)
	} else {
		prompt += "\nNo pre-match prediction exists for this fixture; analyze the result on its own."
	}
	return prompt
}
