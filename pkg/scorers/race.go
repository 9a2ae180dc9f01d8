package scorers

import (
	"context"
	"fmt"

	"github.com/cfoust/tally/pkg/models"

	opt "github.com/repeale/fp-go/option"
)

// Race scores games where each round awards points to one player and the
// first to reach the target wins.
type Race struct {
	*base
	score *models.RaceScore
}

func NewRace(ctx context.Context, env Env, sessionID string) (*Race, error) {
	b, existing, err := load(ctx, env, sessionID, models.ScoringTypeRace)
	if err != nil {
		return nil, err
	}

	score, _ := existing.(*models.RaceScore)
	if score == nil {
		score = &models.RaceScore{
			ScoreBase:   models.ScoreBase{SessionID: sessionID},
			TargetScore: b.game.RaceTarget(),
		}
	}
	if score.TargetScore <= 0 {
		score.TargetScore = b.game.RaceTarget()
	}

	// The round log is the source of truth
	score.Scores = score.Replay(b.session.PlayerIDs)

	return &Race{base: b, score: score}, nil
}

func (r *Race) Score() models.ScoreData {
	return copyScore(r.score)
}

func (r *Race) Target() int {
	return r.score.TargetScore
}

func (r *Race) Totals() models.Tally {
	return r.score.Scores.Clone()
}

func (r *Race) Rounds() []models.RaceRound {
	return append([]models.RaceRound(nil), r.score.Rounds...)
}

// Winner is set once someone reaches the target.
func (r *Race) Winner() opt.Option[string] {
	if r.score.WinnerID == "" {
		return opt.None[string]()
	}
	return opt.Some(r.score.WinnerID)
}

// Ready is false because a race only ends by reaching the target.
func (r *Race) Ready() bool {
	return false
}

func (r *Race) Complete(ctx context.Context) error {
	if r.Finished() {
		return r.checkOpen()
	}
	return fmt.Errorf("%w: nobody has reached %d", ErrNotReady, r.score.TargetScore)
}

// RecordRound awards points to the round's winner. When that brings them to
// the target the session is completed and their id is returned.
func (r *Race) RecordRound(ctx context.Context, winnerID string, points int) (opt.Option[string], error) {
	if err := r.checkOpen(); err != nil {
		return opt.None[string](), err
	}

	if err := r.checkPlayer(winnerID); err != nil {
		return opt.None[string](), err
	}

	if points <= 0 {
		return opt.None[string](), fmt.Errorf("%w: %d", ErrInvalidPoints, points)
	}

	r.score.Rounds = append(r.score.Rounds, models.RaceRound{
		RoundNumber: len(r.score.Rounds) + 1,
		WinnerID:    winnerID,
		Points:      points,
	})
	r.score.Scores = r.score.Replay(r.session.PlayerIDs)

	if r.score.Scores.Value(winnerID) < r.score.TargetScore {
		return opt.None[string](), r.persist(ctx, r.score)
	}

	r.score.WinnerID = winnerID
	if err := r.complete(ctx, r.score); err != nil {
		return opt.None[string](), err
	}
	return opt.Some(winnerID), nil
}

// UndoLastRound removes the most recent round. It does nothing when no
// rounds have been recorded.
func (r *Race) UndoLastRound(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	if len(r.score.Rounds) == 0 {
		return nil
	}

	r.score.Rounds = r.score.Rounds[:len(r.score.Rounds)-1]
	r.score.Scores = r.score.Replay(r.session.PlayerIDs)
	return r.persist(ctx, r.score)
}
