// Package scorers implements the incremental entry workflow for each
// scoring type. A scorer is bound to one in-progress session, persists its
// score record after every change and completes the session when the
// result is final.
package scorers

import (
	"context"
	"errors"
	"fmt"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/ratings"
	"github.com/cfoust/tally/pkg/session"
	"github.com/cfoust/tally/pkg/store"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotReady is returned when completing before every required input
	// has been given.
	ErrNotReady       = errors.New("score is not ready to submit")
	ErrFinished       = errors.New("session is already finished")
	ErrWrongType      = errors.New("scorer does not match the game's scoring type")
	ErrPlayerCount    = errors.New("wrong number of players for this scoring type")
	ErrUnknownPlayer  = errors.New("player is not part of this session")
	ErrInvalidPoints  = errors.New("points must be positive")
	ErrDrawNotAllowed = errors.New("this game does not allow draws")
)

// Env is what scorers need from the rest of the system.
type Env struct {
	Store     store.Store
	Lifecycle *session.Lifecycle
	Ratings   *ratings.Tracker
}

// Scorer is the part every scoring workflow has in common.
type Scorer interface {
	Session() models.GameSession
	Game() models.Game
	// Score is a copy of the current score record.
	Score() models.ScoreData
	// Ready reports whether Complete would succeed.
	Ready() bool
	Finished() bool
	// Complete records the final result and completes the session.
	Complete(ctx context.Context) error
}

type base struct {
	env     Env
	session models.GameSession
	game    models.Game
}

func (b *base) Session() models.GameSession {
	return b.session
}

func (b *base) Game() models.Game {
	return b.game
}

func (b *base) Finished() bool {
	return b.session.Status != models.SessionInProgress
}

func (b *base) checkOpen() error {
	if b.Finished() {
		return fmt.Errorf("%w: %s", ErrFinished, b.session.ID)
	}
	return nil
}

func (b *base) checkPlayer(playerID string) error {
	if !b.session.Has(playerID) {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	return nil
}

func (b *base) persist(ctx context.Context, score models.ScoreData) error {
	err := b.env.Store.SaveScore(ctx, score)
	if err != nil {
		return fmt.Errorf("could not save score for session %s: %w", b.session.ID, err)
	}

	log.Debug().
		Str("session", b.session.ID).
		Str("type", string(score.Type())).
		Msg("score saved")
	return nil
}

// complete saves the final score and moves the session to completed.
func (b *base) complete(ctx context.Context, score models.ScoreData) error {
	if err := b.persist(ctx, score); err != nil {
		return err
	}

	if err := b.env.Lifecycle.Complete(ctx, b.session.ID); err != nil {
		return err
	}

	updated, err := b.env.Store.Session(ctx, b.session.ID)
	if err != nil {
		return fmt.Errorf("could not reload session %s: %w", b.session.ID, err)
	}
	b.session = *updated
	return nil
}

// load reads the session, its game and any score already saved for it.
func load(ctx context.Context, env Env, sessionID string, want models.ScoringType) (*base, models.ScoreData, error) {
	found, err := env.Store.Session(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load session %s: %w", sessionID, err)
	}

	game, err := env.Store.Game(ctx, found.GameID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load game %s: %w", found.GameID, err)
	}

	if want != "" && game.ScoringType != want {
		return nil, nil, fmt.Errorf("%w: %s is %s, not %s", ErrWrongType, game.Name, game.ScoringType, want)
	}

	existing, err := env.Store.ScoreForSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		existing = nil
	} else if err != nil {
		return nil, nil, fmt.Errorf("could not load score for session %s: %w", sessionID, err)
	}

	if existing != nil && existing.Type() != game.ScoringType {
		return nil, nil, fmt.Errorf("%w: stored score is %s", ErrWrongType, existing.Type())
	}

	return &base{
		env:     env,
		session: *found,
		game:    *game,
	}, existing, nil
}

// New builds the scorer matching the session's game.
func New(ctx context.Context, env Env, sessionID string) (Scorer, error) {
	found, err := env.Store.Session(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not load session %s: %w", sessionID, err)
	}

	game, err := env.Store.Game(ctx, found.GameID)
	if err != nil {
		return nil, fmt.Errorf("could not load game %s: %w", found.GameID, err)
	}

	switch game.ScoringType {
	case models.ScoringTypeRace:
		return NewRace(ctx, env, sessionID)
	case models.ScoringTypeRoundBased:
		return NewRoundBased(ctx, env, sessionID)
	case models.ScoringTypeWinLoss:
		return NewWinLoss(ctx, env, sessionID)
	case models.ScoringTypeFinalScore:
		return NewFinalScore(ctx, env, sessionID)
	case models.ScoringTypeELO:
		return NewElo(ctx, env, sessionID)
	case models.ScoringTypeCooperative:
		return NewCooperative(ctx, env, sessionID)
	}

	return nil, fmt.Errorf("%w: %q", ErrWrongType, game.ScoringType)
}

func copyScore(score models.ScoreData) models.ScoreData {
	switch score := score.(type) {
	case *models.RaceScore:
		copied := *score
		copied.Rounds = append([]models.RaceRound(nil), score.Rounds...)
		copied.Scores = score.Scores.Clone()
		return &copied
	case *models.RoundBasedScore:
		copied := *score
		copied.Rounds = make([]models.ScoringRound, 0, len(score.Rounds))
		for _, round := range score.Rounds {
			copied.Rounds = append(copied.Rounds, models.ScoringRound{
				RoundNumber: round.RoundNumber,
				Scores:      round.Scores.Clone(),
			})
		}
		copied.FinalTotals = score.FinalTotals.Clone()
		return &copied
	case *models.WinLossScore:
		copied := *score
		copied.Placements = append([]string(nil), score.Placements...)
		return &copied
	case *models.FinalScoreResult:
		copied := *score
		copied.Scores = score.Scores.Clone()
		return &copied
	case *models.EloScore:
		copied := *score
		copied.PlayerResults = make(map[string]models.PlayerResult, len(score.PlayerResults))
		for id, result := range score.PlayerResults {
			copied.PlayerResults[id] = result
		}
		return &copied
	case *models.CooperativeScore:
		copied := *score
		return &copied
	}
	return score
}
