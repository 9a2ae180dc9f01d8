package scorers

import (
	"context"
	"fmt"

	"github.com/cfoust/tally/pkg/models"
)

// Cooperative scores games the table wins or loses together.
type Cooperative struct {
	*base
	score *models.CooperativeScore
	// Whether won has been chosen
	decided bool
}

func NewCooperative(ctx context.Context, env Env, sessionID string) (*Cooperative, error) {
	b, existing, err := load(ctx, env, sessionID, models.ScoringTypeCooperative)
	if err != nil {
		return nil, err
	}

	score, _ := existing.(*models.CooperativeScore)
	if score == nil {
		score = &models.CooperativeScore{
			ScoreBase: models.ScoreBase{SessionID: sessionID},
		}
	}
	if score.LevelReached < 1 {
		score.LevelReached = 1
	}

	return &Cooperative{
		base:  b,
		score: score,
		// A stored draft cannot tell an unset result from a loss
		decided: b.Finished(),
	}, nil
}

func (c *Cooperative) Level() int {
	return c.score.LevelReached
}

// Won is only meaningful once Decided is true.
func (c *Cooperative) Won() bool {
	return c.score.Won
}

func (c *Cooperative) Decided() bool {
	return c.decided
}

func (c *Cooperative) Increment(ctx context.Context) error {
	return c.SetLevel(ctx, c.score.LevelReached+1)
}

func (c *Cooperative) Decrement(ctx context.Context) error {
	return c.SetLevel(ctx, c.score.LevelReached-1)
}

// SetLevel stores the level reached. The lowest level is 1.
func (c *Cooperative) SetLevel(ctx context.Context, level int) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	if level < 1 {
		level = 1
	}

	c.score.LevelReached = level
	return c.persist(ctx, c.score)
}

func (c *Cooperative) SetWon(ctx context.Context, won bool) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	c.score.Won = won
	c.decided = true
	return c.persist(ctx, c.score)
}

func (c *Cooperative) SetNotes(ctx context.Context, notes string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	c.score.Notes = notes
	return c.persist(ctx, c.score)
}

func (c *Cooperative) Ready() bool {
	return !c.Finished() && c.decided
}

func (c *Cooperative) Score() models.ScoreData {
	return copyScore(c.score)
}

func (c *Cooperative) Submit(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	if !c.decided {
		return fmt.Errorf("%w: choose whether the team won", ErrNotReady)
	}

	return c.complete(ctx, c.score)
}

func (c *Cooperative) Complete(ctx context.Context) error {
	return c.Submit(ctx)
}
