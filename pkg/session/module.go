// Package session moves game sessions through their lifecycle:
// in_progress to completed or abandoned, and nowhere after that.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrNoPlayers       = errors.New("a session needs at least one player")
	ErrDuplicatePlayer = errors.New("a player can only take part once")
	ErrTerminal        = errors.New("session is no longer in progress")
)

type Lifecycle struct {
	store store.Store
	// Now is the clock used for start and completion times.
	Now func() time.Time
}

func NewLifecycle(s store.Store) *Lifecycle {
	return &Lifecycle{
		store: s,
		Now:   time.Now,
	}
}

// Start creates an in-progress session of a game for the given players, in
// the order given.
func (l *Lifecycle) Start(ctx context.Context, gameID string, playerIDs []string) (*models.GameSession, error) {
	if len(playerIDs) == 0 {
		return nil, ErrNoPlayers
	}

	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
		}
		seen[id] = struct{}{}
	}

	if _, err := l.store.Game(ctx, gameID); err != nil {
		return nil, fmt.Errorf("could not load game %s: %w", gameID, err)
	}

	session := &models.GameSession{
		GameID:    gameID,
		PlayerIDs: append([]string(nil), playerIDs...),
		Status:    models.SessionInProgress,
		StartedAt: l.Now(),
	}

	if err := l.store.AddSession(ctx, session); err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	log.Debug().
		Str("session", session.ID).
		Str("game", gameID).
		Strs("players", playerIDs).
		Msg("session started")

	return session, nil
}

func (l *Lifecycle) finish(ctx context.Context, id string, status models.SessionStatus) error {
	session, err := l.store.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("could not load session %s: %w", id, err)
	}

	if session.Status != models.SessionInProgress {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, id, session.Status)
	}

	completed := l.Now()
	err = l.store.UpdateSession(ctx, id, models.SessionPatch{
		Status:      &status,
		CompletedAt: &completed,
	})
	if err != nil {
		return fmt.Errorf("could not update session %s: %w", id, err)
	}

	log.Debug().
		Str("session", id).
		Str("status", string(status)).
		Msg("session finished")
	return nil
}

// Complete marks a session as played to the end.
func (l *Lifecycle) Complete(ctx context.Context, id string) error {
	return l.finish(ctx, id, models.SessionCompleted)
}

// Abandon ends a session without a result.
func (l *Lifecycle) Abandon(ctx context.Context, id string) error {
	return l.finish(ctx, id, models.SessionAbandoned)
}

func (l *Lifecycle) SetNotes(ctx context.Context, id string, notes string) error {
	err := l.store.UpdateSession(ctx, id, models.SessionPatch{Notes: &notes})
	if err != nil {
		return fmt.Errorf("could not update notes of session %s: %w", id, err)
	}
	return nil
}

// Active lists the sessions still in progress, oldest first.
func (l *Lifecycle) Active(ctx context.Context) ([]models.GameSession, error) {
	return l.store.FindSessions(ctx, store.SessionFilter{
		Status: models.SessionInProgress,
	})
}
