package scorers

import (
	"context"
	"fmt"

	"github.com/cfoust/tally/pkg/models"
)

type Step int

const (
	StepWinner Step = iota
	StepLoser
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepWinner:
		return "winner"
	case StepLoser:
		return "loser"
	case StepConfirm:
		return "confirm"
	}
	return "unknown"
}

// WinLoss is a short wizard: pick the winner, optionally pick last place,
// then confirm.
type WinLoss struct {
	*base
	score *models.WinLossScore
	// Last place was either picked or skipped
	loserDecided bool
}

func NewWinLoss(ctx context.Context, env Env, sessionID string) (*WinLoss, error) {
	b, existing, err := load(ctx, env, sessionID, models.ScoringTypeWinLoss)
	if err != nil {
		return nil, err
	}

	scorer := &WinLoss{base: b}
	score, _ := existing.(*models.WinLossScore)
	if score == nil {
		score = &models.WinLossScore{
			ScoreBase: models.ScoreBase{SessionID: sessionID},
		}
	}
	scorer.score = score
	scorer.loserDecided = score.LoserID != ""
	score.Placements = scorer.placements()

	return scorer, nil
}

func (w *WinLoss) Score() models.ScoreData {
	return copyScore(w.score)
}

func (w *WinLoss) Winner() string {
	return w.score.WinnerID
}

func (w *WinLoss) Loser() string {
	return w.score.LoserID
}

// Step is where the wizard currently is.
func (w *WinLoss) Step() Step {
	if w.score.WinnerID == "" {
		return StepWinner
	}
	if w.game.Config.TrackLastPlace && !w.loserDecided {
		return StepLoser
	}
	return StepConfirm
}

// placements puts the winner first and everyone else in session order.
func (w *WinLoss) placements() []string {
	if w.score.WinnerID == "" {
		return []string{}
	}

	placements := []string{w.score.WinnerID}
	for _, playerID := range w.session.PlayerIDs {
		if playerID != w.score.WinnerID {
			placements = append(placements, playerID)
		}
	}
	return placements
}

func (w *WinLoss) SelectWinner(ctx context.Context, playerID string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	if err := w.checkPlayer(playerID); err != nil {
		return err
	}

	w.score.WinnerID = playerID
	if w.score.LoserID == playerID {
		w.score.LoserID = ""
		w.loserDecided = false
	}
	w.score.Placements = w.placements()
	return w.persist(ctx, w.score)
}

func (w *WinLoss) SelectLoser(ctx context.Context, playerID string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	if !w.game.Config.TrackLastPlace {
		return fmt.Errorf("%s does not track last place", w.game.Name)
	}

	if w.score.WinnerID == "" {
		return fmt.Errorf("%w: pick a winner first", ErrNotReady)
	}

	if err := w.checkPlayer(playerID); err != nil {
		return err
	}

	if playerID == w.score.WinnerID {
		return fmt.Errorf("the winner cannot also be last")
	}

	w.score.LoserID = playerID
	w.loserDecided = true
	return w.persist(ctx, w.score)
}

// SkipLoser moves on without recording last place.
func (w *WinLoss) SkipLoser(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	if w.score.WinnerID == "" {
		return fmt.Errorf("%w: pick a winner first", ErrNotReady)
	}

	w.score.LoserID = ""
	w.loserDecided = true
	return w.persist(ctx, w.score)
}

// Reset goes back to the first step.
func (w *WinLoss) Reset(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	w.score.WinnerID = ""
	w.score.LoserID = ""
	w.score.Placements = []string{}
	w.loserDecided = false
	return w.persist(ctx, w.score)
}

func (w *WinLoss) Ready() bool {
	return !w.Finished() && w.Step() == StepConfirm
}

// Confirm records the result.
func (w *WinLoss) Confirm(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	if !w.Ready() {
		return fmt.Errorf("%w: still at the %s step", ErrNotReady, w.Step())
	}

	return w.complete(ctx, w.score)
}

func (w *WinLoss) Complete(ctx context.Context) error {
	return w.Confirm(ctx)
}
