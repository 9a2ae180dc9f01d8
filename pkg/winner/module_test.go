package winner

import (
	"testing"

	"github.com/cfoust/tally/pkg/models"

	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
)

func tally(entries ...models.TallyEntry) models.Tally {
	return models.NewTally(entries...)
}

func TestFinalScoreTieGoesToFirstInserted(t *testing.T) {
	game := &models.Game{ScoringType: models.ScoringTypeFinalScore}

	ab := &models.FinalScoreResult{Scores: tally(models.TallyEntry{PlayerID: "A", Value: 10}, models.TallyEntry{PlayerID: "B", Value: 10})}
	ba := &models.FinalScoreResult{Scores: tally(models.TallyEntry{PlayerID: "B", Value: 10}, models.TallyEntry{PlayerID: "A", Value: 10})}

	assert.Equal(t, "A", ID(ab, game))
	assert.Equal(t, "B", ID(ba, game))
}

func TestRoundBasedRespectsLowestWins(t *testing.T) {
	score := &models.RoundBasedScore{
		FinalTotals: tally(
			models.TallyEntry{PlayerID: "A", Value: 40},
			models.TallyEntry{PlayerID: "B", Value: 12},
			models.TallyEntry{PlayerID: "C", Value: 75},
		),
	}

	highest := &models.Game{ScoringType: models.ScoringTypeRoundBased}
	lowest := &models.Game{ScoringType: models.ScoringTypeRoundBased, Config: models.GameConfig{LowestWins: true}}

	assert.Equal(t, "C", ID(score, highest))
	assert.Equal(t, "B", ID(score, lowest))
}

func TestExplicitWinners(t *testing.T) {
	assert.Equal(t, "A", ID(&models.WinLossScore{WinnerID: "A"}, nil))
	assert.Equal(t, "B", ID(&models.RaceScore{WinnerID: "B"}, nil))
	assert.True(t, opt.IsNone(Resolve(&models.RaceScore{}, nil)))
}

func TestEloWinnerAndDraw(t *testing.T) {
	win := &models.EloScore{
		Result: models.EloPlayer2Win,
		PlayerResults: map[string]models.PlayerResult{
			"A": {Outcome: models.OutcomeLoss},
			"B": {Outcome: models.OutcomeWin},
		},
	}
	assert.Equal(t, "B", ID(win, nil))

	draw := &models.EloScore{
		Result: models.EloDraw,
		PlayerResults: map[string]models.PlayerResult{
			"A": {Outcome: models.OutcomeDraw},
			"B": {Outcome: models.OutcomeDraw},
		},
	}
	assert.True(t, opt.IsNone(Resolve(draw, nil)))
}

func TestCooperativeHasNoWinner(t *testing.T) {
	assert.True(t, opt.IsNone(Resolve(&models.CooperativeScore{Won: true}, nil)))
}

func TestEmptyTallyHasNoWinner(t *testing.T) {
	assert.True(t, opt.IsNone(Resolve(&models.FinalScoreResult{}, nil)))
}

func TestResolveIsDeterministic(t *testing.T) {
	game := &models.Game{ScoringType: models.ScoringTypeFinalScore}
	score := &models.FinalScoreResult{Scores: tally(models.TallyEntry{PlayerID: "X", Value: 3}, models.TallyEntry{PlayerID: "Y", Value: 9}, models.TallyEntry{PlayerID: "Z", Value: 9})}

	for i := 0; i < 20; i++ {
		assert.Equal(t, "Y", ID(score, game))
	}
}
