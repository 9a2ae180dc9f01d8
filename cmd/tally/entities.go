package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cfoust/tally/pkg/catalog"
	"github.com/cfoust/tally/pkg/models"
)

type PlayerAddCmd struct {
	Name  string `arg:"" help:"Display name."`
	Emoji string `help:"Avatar emoji. Picked from the palette when empty."`
	Color string `help:"Avatar colour. Picked from the palette when empty."`
}

func (c *PlayerAddCmd) Run(app *App) error {
	players, err := app.store.Players(app.ctx)
	if err != nil {
		return err
	}

	emoji, color := models.DefaultAvatar(len(players))
	if c.Emoji != "" {
		emoji = c.Emoji
	}
	if c.Color != "" {
		color = c.Color
	}

	player := models.Player{
		Name:        c.Name,
		AvatarEmoji: emoji,
		AvatarColor: color,
		CreatedAt:   time.Now(),
	}
	if err := app.store.AddPlayer(app.ctx, &player); err != nil {
		return err
	}

	return app.print(player, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "added %s %s (%s)\n", player.AvatarEmoji, player.Name, player.ID)
		return err
	})
}

type PlayerListCmd struct{}

func (c *PlayerListCmd) Run(app *App) error {
	players, err := app.store.Players(app.ctx)
	if err != nil {
		return err
	}

	return app.print(players, func(w io.Writer) error {
		rows := [][]string{{"ID", "", "NAME", "COLOR"}}
		for _, player := range players {
			rows = append(rows, []string{player.ID, player.AvatarEmoji, player.Name, player.AvatarColor})
		}
		return table(w, rows)
	})
}

type PlayerEditCmd struct {
	Player string  `arg:"" help:"Player id or name."`
	Name   *string `help:"New display name."`
	Emoji  *string `help:"New avatar emoji."`
	Color  *string `help:"New avatar colour."`
}

func (c *PlayerEditCmd) Run(app *App) error {
	player, err := app.player(c.Player)
	if err != nil {
		return err
	}

	return app.store.UpdatePlayer(app.ctx, player.ID, models.PlayerPatch{
		Name:        c.Name,
		AvatarEmoji: c.Emoji,
		AvatarColor: c.Color,
	})
}

type PlayerRmCmd struct {
	Player string `arg:"" help:"Player id or name."`
}

func (c *PlayerRmCmd) Run(app *App) error {
	player, err := app.player(c.Player)
	if err != nil {
		return err
	}
	return app.store.DeletePlayer(app.ctx, player.ID)
}

type GameAddCmd struct {
	Name       string             `arg:"" help:"Game name."`
	Type       models.ScoringType `required:"" enum:"race,round_based,win_loss,final_score,elo,cooperative" help:"Scoring type."`
	Icon       string             `default:"🎲" help:"Icon shown next to the name."`
	Category   string             `help:"One of strategy, party, family, card_games, classic or cooperative."`
	Min        int                `default:"2" help:"Minimum number of players."`
	Max        int                `default:"8" help:"Maximum number of players."`
	Target     *int               `help:"Target score for race and round-based games."`
	LastPlace  bool               `help:"Also record who came last (win/loss)."`
	AllowDraw  bool               `help:"Allow draws (elo)."`
	LowestWins bool               `help:"Lowest total wins (round-based)."`
}

func (c *GameAddCmd) Run(app *App) error {
	if c.Min < 1 || c.Max < c.Min {
		return fmt.Errorf("invalid player range %d-%d", c.Min, c.Max)
	}
	if c.Type == models.ScoringTypeELO && (c.Min != 2 || c.Max != 2) {
		return fmt.Errorf("rated games are played by exactly two players")
	}

	created := time.Now()
	game := models.Game{
		Name:        c.Name,
		ScoringType: c.Type,
		Icon:        c.Icon,
		Category:    models.Category(c.Category),
		IsCustom:    true,
		CreatedAt:   &created,
		Config: models.GameConfig{
			MinPlayers:     c.Min,
			MaxPlayers:     c.Max,
			TargetScore:    c.Target,
			TrackLastPlace: c.LastPlace,
			AllowDraw:      c.AllowDraw,
			LowestWins:     c.LowestWins,
		},
	}
	if err := app.store.AddGame(app.ctx, &game); err != nil {
		return err
	}

	return app.print(game, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "added %s %s (%s)\n", game.Icon, game.Name, game.ID)
		return err
	})
}

type GameListCmd struct {
	Favourites bool `help:"Only list favourites."`
}

func (c *GameListCmd) Run(app *App) error {
	all, err := app.store.Games(app.ctx)
	if err != nil {
		return err
	}

	games := make([]models.Game, 0, len(all))
	for _, game := range all {
		if c.Favourites && !game.IsFavourite {
			continue
		}
		games = append(games, game)
	}

	return app.print(games, func(w io.Writer) error {
		rows := [][]string{{"ID", "", "NAME", "TYPE", "PLAYERS", "TARGET", "FLAGS"}}
		for _, game := range games {
			target := ""
			if value, ok := game.Config.Target(); ok {
				target = strconv.Itoa(value)
			} else if game.ScoringType == models.ScoringTypeRace {
				target = strconv.Itoa(game.RaceTarget())
			}

			flags := ""
			if game.IsFavourite {
				flags += "★ "
			}
			if game.IsCustom {
				flags += "custom "
			}
			if game.Config.LowestWins {
				flags += "lowest-wins "
			}
			if game.Config.TrackLastPlace {
				flags += "last-place "
			}
			if game.Config.AllowDraw {
				flags += "draws "
			}

			rows = append(rows, []string{
				game.ID,
				game.Icon,
				game.Name,
				string(game.ScoringType),
				fmt.Sprintf("%d-%d", game.Config.MinPlayers, game.Config.MaxPlayers),
				target,
				flags,
			})
		}
		return table(w, rows)
	})
}

type GameEditCmd struct {
	Game       string  `arg:"" help:"Game id or name."`
	Name       *string `help:"New name."`
	Icon       *string `help:"New icon."`
	Category   *string `help:"New category."`
	Min        *int    `help:"Minimum number of players."`
	Max        *int    `help:"Maximum number of players."`
	Target     *int    `help:"Target score for race and round-based games."`
	NoTarget   bool    `help:"Remove the target score."`
	LastPlace  string  `help:"Whether to record who came last (win/loss): on or off."`
	AllowDraw  string  `help:"Whether draws are allowed (elo): on or off."`
	LowestWins string  `help:"Whether the lowest total wins (round-based): on or off."`
}

// toggle reads an on/off flag, leaving value alone when raw is empty.
func toggle(raw string, value *bool) error {
	switch strings.ToLower(raw) {
	case "":
	case "on", "true", "yes":
		*value = true
	case "off", "false", "no":
		*value = false
	default:
		return fmt.Errorf("expected on or off, got %q", raw)
	}
	return nil
}

func (c *GameEditCmd) Run(app *App) error {
	game, err := app.game(c.Game)
	if err != nil {
		return err
	}

	if !game.IsCustom {
		return fmt.Errorf("%s is a built-in game, only custom games can be edited", game.Name)
	}

	config := game.Config
	if c.Min != nil {
		config.MinPlayers = *c.Min
	}
	if c.Max != nil {
		config.MaxPlayers = *c.Max
	}
	if c.NoTarget {
		config.TargetScore = nil
	}
	if c.Target != nil {
		config.TargetScore = models.IntPtr(*c.Target)
	}
	if err := toggle(c.LastPlace, &config.TrackLastPlace); err != nil {
		return err
	}
	if err := toggle(c.AllowDraw, &config.AllowDraw); err != nil {
		return err
	}
	if err := toggle(c.LowestWins, &config.LowestWins); err != nil {
		return err
	}

	if config.MinPlayers < 1 || config.MaxPlayers < config.MinPlayers {
		return fmt.Errorf("invalid player range %d-%d", config.MinPlayers, config.MaxPlayers)
	}
	if game.ScoringType == models.ScoringTypeELO && (config.MinPlayers != 2 || config.MaxPlayers != 2) {
		return fmt.Errorf("rated games are played by exactly two players")
	}

	patch := models.GamePatch{
		Name:   c.Name,
		Icon:   c.Icon,
		Config: &config,
	}
	if c.Category != nil {
		category := models.Category(*c.Category)
		patch.Category = &category
	}

	return app.store.UpdateGame(app.ctx, game.ID, patch)
}

type GameFavCmd struct {
	Game string `arg:"" help:"Game id or name."`
}

func (c *GameFavCmd) Run(app *App) error {
	game, err := app.game(c.Game)
	if err != nil {
		return err
	}

	favourite := !game.IsFavourite
	return app.store.UpdateGame(app.ctx, game.ID, models.GamePatch{IsFavourite: &favourite})
}

type GameRmCmd struct {
	Game string `arg:"" help:"Game id or name."`
}

func (c *GameRmCmd) Run(app *App) error {
	game, err := app.game(c.Game)
	if err != nil {
		return err
	}
	return app.store.DeleteGame(app.ctx, game.ID)
}

type SeedCmd struct{}

func (c *SeedCmd) Run(app *App) error {
	result, err := catalog.Seed(app.ctx, app.store, time.Now())
	if err != nil {
		return err
	}

	return app.print(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d added, %d updated\n", len(result.Added), len(result.Updated))
		return err
	})
}
