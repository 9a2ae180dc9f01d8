package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cfoust/tally/pkg/backup"
	"github.com/cfoust/tally/pkg/catalog"
	"github.com/cfoust/tally/pkg/config"
	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/ratings"
	"github.com/cfoust/tally/pkg/scorers"
	"github.com/cfoust/tally/pkg/session"
	"github.com/cfoust/tally/pkg/stats"
	"github.com/cfoust/tally/pkg/store"
	"github.com/cfoust/tally/pkg/utils"

	"github.com/rs/zerolog/log"
)

// App is everything a command runs against.
type App struct {
	ctx      context.Context
	settings *config.Config
	format   string

	store   store.Store
	env     scorers.Env
	stats   *stats.Engine
	backups *backup.Service
	changes *utils.Subscriber[store.Change]

	closers []func() error
}

func Open(ctx context.Context, settings *config.Config, format string) (*App, error) {
	app := &App{
		ctx:      ctx,
		settings: settings,
		format:   format,
	}

	if settings.Database.Memory {
		app.store = store.NewMemoryStore()
		log.Warn().Msg("using an in-memory database, nothing will be saved")
	} else {
		sql, err := store.OpenSQLite(settings.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open database %s: %w", settings.Database.Path, err)
		}
		app.store = sql
		app.closers = append(app.closers, sql.Close)
	}

	app.changes = app.store.Changes().Subscribe()

	var cache ratings.Cache
	if settings.Cache.Enabled {
		redisSettings := settings.Cache.Redis
		if redisSettings.Address != "" {
			client, err := ratings.DialRedis(ctx, redisSettings.Address, redisSettings.Password, redisSettings.DB)
			if err != nil {
				app.Close()
				return nil, err
			}
			cache = ratings.NewRedisCache(client, settings.Cache.Expiry())
			app.closers = append(app.closers, client.Close)
		} else {
			cache = ratings.NewMemoryCache(settings.Cache.Expiry())
		}
	}

	tracker := ratings.NewTracker(app.store, cache)
	app.closers = append(app.closers, func() error {
		tracker.Close()
		return nil
	})

	app.env = scorers.Env{
		Store:     app.store,
		Lifecycle: session.NewLifecycle(app.store),
		Ratings:   tracker,
	}
	app.stats = stats.NewEngine(app.store)
	app.backups = backup.NewService(app.store)

	if settings.Catalog.Seed {
		if _, err := catalog.Seed(ctx, app.store, time.Now()); err != nil {
			app.Close()
			return nil, fmt.Errorf("could not seed games: %w", err)
		}
	}

	return app, nil
}

// logChanges reports every write the command made at debug level.
func (a *App) logChanges() {
	defer a.changes.Done()

	for {
		select {
		case change := <-a.changes.Recv():
			log.Debug().
				Str("table", string(change.Table)).
				Str("op", string(change.Op)).
				Str("id", change.ID).
				Msg("store changed")
		default:
			return
		}
	}
}

func (a *App) Close() {
	if a.changes != nil {
		a.logChanges()
		a.changes = nil
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("error while closing")
		}
	}
	a.closers = nil
}

// player finds a player by id or, failing that, by name.
func (a *App) player(ref string) (*models.Player, error) {
	players, err := a.store.Players(a.ctx)
	if err != nil {
		return nil, err
	}

	for i := range players {
		if players[i].ID == ref {
			return &players[i], nil
		}
	}
	for i := range players {
		if strings.EqualFold(players[i].Name, ref) {
			return &players[i], nil
		}
	}

	return nil, fmt.Errorf("no player %q", ref)
}

func (a *App) players(refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		player, err := a.player(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, player.ID)
	}
	return ids, nil
}

// game finds a game by id or, failing that, by name.
func (a *App) game(ref string) (*models.Game, error) {
	games, err := a.store.Games(a.ctx)
	if err != nil {
		return nil, err
	}

	for i := range games {
		if games[i].ID == ref {
			return &games[i], nil
		}
	}
	for i := range games {
		if strings.EqualFold(games[i].Name, ref) {
			return &games[i], nil
		}
	}

	return nil, fmt.Errorf("no game %q", ref)
}

// names maps player ids to display names, for output.
func (a *App) names() (map[string]string, error) {
	players, err := a.store.Players(a.ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(players))
	for _, player := range players {
		names[player.ID] = player.Name
	}
	return names, nil
}

func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
