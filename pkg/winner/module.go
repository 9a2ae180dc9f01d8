// Package winner decides who won a completed session. Every statistic goes
// through Resolve so that leaderboards, streaks and head-to-head records
// agree with each other.
package winner

import (
	"github.com/cfoust/tally/pkg/models"

	opt "github.com/repeale/fp-go/option"
)

// Resolve returns the winning player id, or None when the session has no
// individual winner (cooperative games, ELO draws, incomplete records).
func Resolve(score models.ScoreData, game *models.Game) opt.Option[string] {
	switch score := score.(type) {
	case *models.WinLossScore:
		return nonEmpty(score.WinnerID)
	case *models.RaceScore:
		return nonEmpty(score.WinnerID)
	case *models.FinalScoreResult:
		return Extremum(score.Scores, false)
	case *models.RoundBasedScore:
		lowest := game != nil && game.Config.LowestWins
		return Extremum(score.FinalTotals, lowest)
	case *models.EloScore:
		for playerID, result := range score.PlayerResults {
			if result.Outcome == models.OutcomeWin {
				return opt.Some(playerID)
			}
		}
		return opt.None[string]()
	case *models.CooperativeScore:
		return opt.None[string]()
	}
	return opt.None[string]()
}

// Extremum returns the first player, in insertion order, holding the
// maximum value (or the minimum when lowest is set).
func Extremum(tally models.Tally, lowest bool) opt.Option[string] {
	var (
		best  string
		value int
		found bool
	)

	for _, entry := range tally.Entries() {
		if !found {
			best, value, found = entry.PlayerID, entry.Value, true
			continue
		}

		if lowest && entry.Value < value || !lowest && entry.Value > value {
			best, value = entry.PlayerID, entry.Value
		}
	}

	if !found {
		return opt.None[string]()
	}
	return opt.Some(best)
}

// ID returns the winner id, or "" when there is none.
func ID(score models.ScoreData, game *models.Game) string {
	result := Resolve(score, game)
	if opt.IsNone(result) {
		return ""
	}
	return result.Value
}

func nonEmpty(playerID string) opt.Option[string] {
	if playerID == "" {
		return opt.None[string]()
	}
	return opt.Some(playerID)
}
