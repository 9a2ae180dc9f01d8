package scorers

import (
	"context"
	"fmt"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/winner"

	opt "github.com/repeale/fp-go/option"
)

// RoundBased scores games where every player scores every round.
type RoundBased struct {
	*base
	score *models.RoundBasedScore
}

func NewRoundBased(ctx context.Context, env Env, sessionID string) (*RoundBased, error) {
	b, existing, err := load(ctx, env, sessionID, models.ScoringTypeRoundBased)
	if err != nil {
		return nil, err
	}

	score, _ := existing.(*models.RoundBasedScore)
	if score == nil {
		score = &models.RoundBasedScore{
			ScoreBase: models.ScoreBase{SessionID: sessionID},
		}
	}
	score.FinalTotals = score.Replay(b.session.PlayerIDs)

	return &RoundBased{base: b, score: score}, nil
}

func (r *RoundBased) Score() models.ScoreData {
	return copyScore(r.score)
}

func (r *RoundBased) Totals() models.Tally {
	return r.score.FinalTotals.Clone()
}

func (r *RoundBased) Rounds() []models.ScoringRound {
	return copyScore(r.score).(*models.RoundBasedScore).Rounds
}

// Leader is whoever would win if the game finished now.
func (r *RoundBased) Leader() opt.Option[string] {
	return winner.Resolve(r.score, &r.game)
}

func (r *RoundBased) Ready() bool {
	return !r.Finished() && len(r.score.Rounds) > 0
}

// RecordRound appends a round. Players missing from scores scored zero.
// If the game has a target and higher scores win, the first player in
// session order at or past the target finishes the game, and their id is
// returned.
func (r *RoundBased) RecordRound(ctx context.Context, scores map[string]int) (opt.Option[string], error) {
	if err := r.checkOpen(); err != nil {
		return opt.None[string](), err
	}

	for playerID := range scores {
		if err := r.checkPlayer(playerID); err != nil {
			return opt.None[string](), err
		}
	}

	round := models.ScoringRound{
		RoundNumber: len(r.score.Rounds) + 1,
		Scores:      models.Tally{},
	}
	for _, playerID := range r.session.PlayerIDs {
		round.Scores.Set(playerID, scores[playerID])
	}

	r.score.Rounds = append(r.score.Rounds, round)
	r.score.FinalTotals = r.score.Replay(r.session.PlayerIDs)

	target, ok := r.game.Config.Target()
	if !ok || r.game.Config.LowestWins {
		return opt.None[string](), r.persist(ctx, r.score)
	}

	for _, playerID := range r.session.PlayerIDs {
		if r.score.FinalTotals.Value(playerID) >= target {
			if err := r.complete(ctx, r.score); err != nil {
				return opt.None[string](), err
			}
			return opt.Some(playerID), nil
		}
	}

	return opt.None[string](), r.persist(ctx, r.score)
}

func (r *RoundBased) UndoLastRound(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	if len(r.score.Rounds) == 0 {
		return nil
	}

	r.score.Rounds = r.score.Rounds[:len(r.score.Rounds)-1]
	r.score.FinalTotals = r.score.Replay(r.session.PlayerIDs)
	return r.persist(ctx, r.score)
}

// Finish ends the game manually. The winner is decided from the totals.
func (r *RoundBased) Finish(ctx context.Context) (opt.Option[string], error) {
	if err := r.checkOpen(); err != nil {
		return opt.None[string](), err
	}

	if len(r.score.Rounds) == 0 {
		return opt.None[string](), fmt.Errorf("%w: no rounds played", ErrNotReady)
	}

	if err := r.complete(ctx, r.score); err != nil {
		return opt.None[string](), err
	}
	return r.Leader(), nil
}

func (r *RoundBased) Complete(ctx context.Context) error {
	_, err := r.Finish(ctx)
	return err
}
