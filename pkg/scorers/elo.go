package scorers

import (
	"context"
	"fmt"

	"github.com/cfoust/tally/pkg/mmr"
	"github.com/cfoust/tally/pkg/models"
)

// Elo scores a rated two player game.
type Elo struct {
	*base
	score   *models.EloScore
	ratings [2]int
}

func NewElo(ctx context.Context, env Env, sessionID string) (*Elo, error) {
	b, existing, err := load(ctx, env, sessionID, models.ScoringTypeELO)
	if err != nil {
		return nil, err
	}

	if len(b.session.PlayerIDs) != 2 {
		return nil, fmt.Errorf("%w: rated games need 2, session has %d", ErrPlayerCount, len(b.session.PlayerIDs))
	}

	score, _ := existing.(*models.EloScore)
	if score == nil {
		score = &models.EloScore{
			ScoreBase: models.ScoreBase{SessionID: sessionID},
		}
	}

	scorer := &Elo{base: b, score: score}
	if err := scorer.loadRatings(ctx); err != nil {
		return nil, err
	}

	return scorer, nil
}

func (e *Elo) loadRatings(ctx context.Context) error {
	ratings, err := e.env.Ratings.Ratings(ctx, e.game.ID, e.session.PlayerIDs)
	if err != nil {
		return fmt.Errorf("could not load ratings: %w", err)
	}

	e.ratings = [2]int{ratings[0], ratings[1]}
	return nil
}

func (e *Elo) Players() [2]string {
	return [2]string{e.session.PlayerIDs[0], e.session.PlayerIDs[1]}
}

// Ratings are the current ratings of both players, in session order.
func (e *Elo) Ratings() [2]int {
	return e.ratings
}

func (e *Elo) Result() models.EloResult {
	return e.score.Result
}

// Select picks the outcome.
func (e *Elo) Select(ctx context.Context, result models.EloResult) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	if !result.Valid() {
		return fmt.Errorf("unknown result %q", result)
	}

	if result == models.EloDraw && !e.game.Config.AllowDraw {
		return fmt.Errorf("%w: %s", ErrDrawNotAllowed, e.game.Name)
	}

	e.score.Result = result
	e.score.PlayerResults = e.outcome(e.ratings)
	return e.persist(ctx, e.score)
}

func (e *Elo) outcome(ratings [2]int) map[string]models.PlayerResult {
	a, b := mmr.Calculate(ratings[0], ratings[1], e.score.Result.ScoreA())

	var outcomes [2]models.EloOutcome
	switch e.score.Result {
	case models.EloPlayer1Win:
		outcomes = [2]models.EloOutcome{models.OutcomeWin, models.OutcomeLoss}
	case models.EloPlayer2Win:
		outcomes = [2]models.EloOutcome{models.OutcomeLoss, models.OutcomeWin}
	default:
		outcomes = [2]models.EloOutcome{models.OutcomeDraw, models.OutcomeDraw}
	}

	players := e.Players()
	return map[string]models.PlayerResult{
		players[0]: {Outcome: outcomes[0], RatingBefore: ratings[0], RatingAfter: a},
		players[1]: {Outcome: outcomes[1], RatingBefore: ratings[1], RatingAfter: b},
	}
}

// Preview is the ratings both players would have after the selected
// result.
func (e *Elo) Preview() (map[string]models.PlayerResult, bool) {
	if !e.score.Result.Valid() {
		return nil, false
	}
	return e.outcome(e.ratings), true
}

func (e *Elo) Ready() bool {
	return !e.Finished() && e.score.Result.Valid()
}

func (e *Elo) Score() models.ScoreData {
	return copyScore(e.score)
}

// Submit recomputes the new ratings from freshly read ratings and records
// them.
func (e *Elo) Submit(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	if !e.Ready() {
		return fmt.Errorf("%w: no result selected", ErrNotReady)
	}

	if err := e.loadRatings(ctx); err != nil {
		return err
	}

	e.score.PlayerResults = e.outcome(e.ratings)
	return e.complete(ctx, e.score)
}

func (e *Elo) Complete(ctx context.Context) error {
	return e.Submit(ctx)
}
