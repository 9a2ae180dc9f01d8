// Package catalog holds the games every installation starts with.
package catalog

import (
	"context"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/rs/zerolog/log"
)

type Entry struct {
	Name        string
	ScoringType models.ScoringType
	Icon        string
	Category    models.Category
	Config      models.GameConfig
}

func (e Entry) Game() models.Game {
	config := e.Config
	if target, ok := config.Target(); ok {
		config.TargetScore = models.IntPtr(target)
	}

	return models.Game{
		Name:        e.Name,
		ScoringType: e.ScoringType,
		Icon:        e.Icon,
		Category:    e.Category,
		Config:      config,
	}
}

var BuiltIn = []Entry{
	{
		Name:        "Backgammon",
		ScoringType: models.ScoringTypeRace,
		Icon:        "🎲",
		Category:    models.CategoryClassic,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 2, TargetScore: models.IntPtr(3)},
	},
	{
		Name:        "Flip 7",
		ScoringType: models.ScoringTypeRoundBased,
		Icon:        "🃏",
		Category:    models.CategoryCardGames,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 8, TargetScore: models.IntPtr(200)},
	},
	{
		Name:        "Monopoly Deal",
		ScoringType: models.ScoringTypeWinLoss,
		Icon:        "💰",
		Category:    models.CategoryCardGames,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 5},
	},
	{
		Name:        "Wingspan",
		ScoringType: models.ScoringTypeFinalScore,
		Icon:        "🦅",
		Category:    models.CategoryStrategy,
		Config:      models.GameConfig{MinPlayers: 1, MaxPlayers: 5},
	},
	{
		Name:        "Ticket to Ride",
		ScoringType: models.ScoringTypeFinalScore,
		Icon:        "🚂",
		Category:    models.CategoryFamily,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 5},
	},
	{
		Name:        "Shithead",
		ScoringType: models.ScoringTypeWinLoss,
		Icon:        "💩",
		Category:    models.CategoryCardGames,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 6, TrackLastPlace: true},
	},
	{
		Name:        "Chess",
		ScoringType: models.ScoringTypeELO,
		Icon:        "♟️",
		Category:    models.CategoryClassic,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 2, AllowDraw: true},
	},
	{
		Name:        "The Mind",
		ScoringType: models.ScoringTypeCooperative,
		Icon:        "🧠",
		Category:    models.CategoryCooperative,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 4},
	},
	{
		Name:        "Jungle Speed",
		ScoringType: models.ScoringTypeWinLoss,
		Icon:        "🪵",
		Category:    models.CategoryParty,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 10},
	},
	{
		Name:        "Darts",
		ScoringType: models.ScoringTypeRoundBased,
		Icon:        "🎯",
		Category:    models.CategoryParty,
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 8, LowestWins: true, TargetScore: models.IntPtr(501)},
	},
}

func Find(name string) (Entry, bool) {
	for _, entry := range BuiltIn {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

func sameTarget(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameConfig(a, b models.GameConfig) bool {
	return a.MinPlayers == b.MinPlayers &&
		a.MaxPlayers == b.MaxPlayers &&
		sameTarget(a.TargetScore, b.TargetScore) &&
		a.TrackLastPlace == b.TrackLastPlace &&
		a.AllowDraw == b.AllowDraw &&
		a.LowestWins == b.LowestWins
}

type Result struct {
	Added   []string
	Updated []string
}

// Seed adds the built-in games that are missing by name and brings the
// existing ones up to date. Custom games are never touched, and neither is
// the scoring type of a game that already exists.
func Seed(ctx context.Context, s store.Store, now time.Time) (Result, error) {
	var result Result

	games, err := s.Games(ctx)
	if err != nil {
		return result, err
	}

	existing := make(map[string]models.Game)
	for _, game := range games {
		if game.IsCustom {
			continue
		}
		existing[game.Name] = game
	}

	for _, entry := range BuiltIn {
		game, ok := existing[entry.Name]
		if !ok {
			created := now
			added := entry.Game()
			added.CreatedAt = &created
			if err := s.AddGame(ctx, &added); err != nil {
				return result, err
			}

			result.Added = append(result.Added, entry.Name)
			continue
		}

		if game.ScoringType != entry.ScoringType {
			log.Warn().
				Str("game", game.Name).
				Str("stored", string(game.ScoringType)).
				Str("builtin", string(entry.ScoringType)).
				Msg("built-in game has a different scoring type, leaving it")
		}

		if sameConfig(game.Config, entry.Config) &&
			game.Icon == entry.Icon &&
			game.Category == entry.Category {
			continue
		}

		want := entry.Game()
		err := s.UpdateGame(ctx, game.ID, models.GamePatch{
			Icon:     &want.Icon,
			Config:   &want.Config,
			Category: &want.Category,
		})
		if err != nil {
			return result, err
		}

		result.Updated = append(result.Updated, entry.Name)
	}

	log.Debug().
		Strs("added", result.Added).
		Strs("updated", result.Updated).
		Msg("seeded built-in games")
	return result, nil
}
