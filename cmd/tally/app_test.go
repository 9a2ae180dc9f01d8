package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *App {
	s := store.NewMemoryStore()
	app := &App{
		ctx:     context.Background(),
		format:  "text",
		store:   s,
		changes: s.Changes().Subscribe(),
	}
	t.Cleanup(app.Close)
	return app
}

func TestGameEdit(t *testing.T) {
	app := newApp(t)

	game := models.Game{
		Name:        "Skull King",
		ScoringType: models.ScoringTypeRoundBased,
		IsCustom:    true,
		Config: models.GameConfig{
			MinPlayers:  2,
			MaxPlayers:  8,
			TargetScore: models.IntPtr(300),
		},
	}
	require.NoError(t, app.store.AddGame(app.ctx, &game))

	name := "Skull King (short)"
	most := 6
	edit := GameEditCmd{
		Game:       "skull king",
		Name:       &name,
		Max:        &most,
		NoTarget:   true,
		LowestWins: "on",
	}
	require.NoError(t, edit.Run(app))

	stored, err := app.store.Game(app.ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name)
	assert.Equal(t, models.ScoringTypeRoundBased, stored.ScoringType)
	assert.Equal(t, 2, stored.Config.MinPlayers)
	assert.Equal(t, 6, stored.Config.MaxPlayers)
	assert.Nil(t, stored.Config.TargetScore)
	assert.True(t, stored.Config.LowestWins)

	fewest := 7
	assert.Error(t, (&GameEditCmd{Game: game.ID, Min: &fewest}).Run(app))
	assert.Error(t, (&GameEditCmd{Game: game.ID, AllowDraw: "maybe"}).Run(app))
}

func TestGameEditRefusesBuiltIns(t *testing.T) {
	app := newApp(t)

	game := models.Game{
		Name:        "Chess",
		ScoringType: models.ScoringTypeELO,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 2, AllowDraw: true},
	}
	require.NoError(t, app.store.AddGame(app.ctx, &game))

	name := "Shogi"
	assert.Error(t, (&GameEditCmd{Game: "Chess", Name: &name}).Run(app))

	stored, err := app.store.Game(app.ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chess", stored.Name)
}

func TestToggle(t *testing.T) {
	value := true
	require.NoError(t, toggle("", &value))
	assert.True(t, value)
	require.NoError(t, toggle("OFF", &value))
	assert.False(t, value)
	require.NoError(t, toggle("on", &value))
	assert.True(t, value)
	assert.Error(t, toggle("2", &value))
}

func TestCloseLogsChanges(t *testing.T) {
	var buffer bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buffer).Level(zerolog.DebugLevel)
	defer func() { log.Logger = previous }()

	app := newApp(t)
	require.NoError(t, app.store.AddPlayer(app.ctx, &models.Player{ID: "p1", Name: "Ana"}))
	app.Close()

	assert.Contains(t, buffer.String(), `"table":"players"`)
	assert.Contains(t, buffer.String(), `"id":"p1"`)
	assert.Nil(t, app.changes)
}
