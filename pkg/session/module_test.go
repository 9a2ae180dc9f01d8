package session

import (
	"context"
	"testing"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Lifecycle, store.Store, string) {
	s := store.NewMemoryStore()
	game := models.Game{Name: "Chess", ScoringType: models.ScoringTypeELO}
	require.NoError(t, s.AddGame(context.Background(), &game))

	lifecycle := NewLifecycle(s)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lifecycle.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return lifecycle, s, game.ID
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	lifecycle, s, gameID := setup(t)

	_, err := lifecycle.Start(ctx, gameID, nil)
	assert.ErrorIs(t, err, ErrNoPlayers)

	_, err = lifecycle.Start(ctx, gameID, []string{"a", "a"})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)

	_, err = lifecycle.Start(ctx, "missing", []string{"a"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// One player is enough for the lifecycle
	session, err := lifecycle.Start(ctx, gameID, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, session.Status)
	assert.Nil(t, session.CompletedAt)

	stored, err := s.Session(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, stored.PlayerIDs)

	active, err := lifecycle.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	lifecycle, s, gameID := setup(t)

	completed, err := lifecycle.Start(ctx, gameID, []string{"a"})
	require.NoError(t, err)
	require.NoError(t, lifecycle.Complete(ctx, completed.ID))

	stored, err := s.Session(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.After(stored.StartedAt))

	abandoned, err := lifecycle.Start(ctx, gameID, []string{"a"})
	require.NoError(t, err)
	require.NoError(t, lifecycle.Abandon(ctx, abandoned.ID))

	stored, err = s.Session(ctx, abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAbandoned, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	// Nothing leaves a terminal state
	assert.ErrorIs(t, lifecycle.Complete(ctx, abandoned.ID), ErrTerminal)
	assert.ErrorIs(t, lifecycle.Abandon(ctx, completed.ID), ErrTerminal)
	assert.ErrorIs(t, lifecycle.Complete(ctx, "missing"), store.ErrNotFound)

	require.NoError(t, lifecycle.SetNotes(ctx, completed.ID, "rematch tomorrow"))
	stored, err = s.Session(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, "rematch tomorrow", stored.Notes)
	assert.Equal(t, models.SessionCompleted, stored.Status)
}
