package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cfoust/tally/pkg/backup"
	"github.com/cfoust/tally/pkg/mmr"
	"github.com/cfoust/tally/pkg/models"
)

type LeaderboardCmd struct {
	Game string `help:"Only count sessions of this game."`
}

func (c *LeaderboardCmd) Run(app *App) error {
	gameID := ""
	if c.Game != "" {
		game, err := app.game(c.Game)
		if err != nil {
			return err
		}
		gameID = game.ID
	}

	entries, err := app.stats.Leaderboard(app.ctx, gameID)
	if err != nil {
		return err
	}

	return app.print(entries, func(w io.Writer) error {
		rows := [][]string{{"#", "", "PLAYER", "PLAYED", "WINS", "RATE"}}
		for i, entry := range entries {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				entry.Player.AvatarEmoji,
				entry.Player.Name,
				strconv.Itoa(entry.GamesPlayed),
				strconv.Itoa(entry.Wins),
				percent(entry.WinRate),
			})
		}
		return table(w, rows)
	})
}

type HeadToHeadCmd struct {
	Player1 string `arg:"" help:"First player."`
	Player2 string `arg:"" help:"Second player."`
}

func (c *HeadToHeadCmd) Run(app *App) error {
	a, err := app.player(c.Player1)
	if err != nil {
		return err
	}

	b, err := app.player(c.Player2)
	if err != nil {
		return err
	}

	record, err := app.stats.HeadToHead(app.ctx, a.ID, b.ID)
	if err != nil {
		return err
	}

	return app.print(record, func(w io.Writer) error {
		return table(w, [][]string{
			{a.Name, "DRAWS", b.Name, "GAMES"},
			{
				strconv.Itoa(record.Player1Wins),
				strconv.Itoa(record.Draws),
				strconv.Itoa(record.Player2Wins),
				strconv.Itoa(record.TotalGames),
			},
		})
	})
}

func form(results []bool) string {
	var builder strings.Builder
	for _, won := range results {
		if won {
			builder.WriteByte('W')
		} else {
			builder.WriteByte('L')
		}
	}
	return builder.String()
}

type ProfileCmd struct {
	Player string `arg:"" help:"Player id or name."`
}

func (c *ProfileCmd) Run(app *App) error {
	player, err := app.player(c.Player)
	if err != nil {
		return err
	}

	profile, err := app.stats.PlayerProfile(app.ctx, player.ID)
	if err != nil {
		return err
	}

	return app.print(profile, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s\n", player.AvatarEmoji, player.Name)
		fmt.Fprintf(
			w,
			"%d games, %d wins (%s), streak %s\n",
			profile.TotalGames,
			profile.TotalWins,
			percent(profile.OverallWinRate),
			signed(profile.CurrentStreak),
		)
		if len(profile.RecentForm) > 0 {
			fmt.Fprintf(w, "form %s\n", form(profile.RecentForm))
		}
		if profile.BestGame != nil {
			fmt.Fprintf(w, "best  %s %s (%s)\n", profile.BestGame.GameIcon, profile.BestGame.GameName, percent(profile.BestGame.WinRate))
		}
		if profile.WorstGame != nil {
			fmt.Fprintf(w, "worst %s %s (%s)\n", profile.WorstGame.GameIcon, profile.WorstGame.GameName, percent(profile.WorstGame.WinRate))
		}
		if len(profile.PerGame) == 0 {
			return nil
		}

		fmt.Fprintln(w)
		rows := [][]string{{"", "GAME", "PLAYED", "WINS", "RATE"}}
		for _, stat := range profile.PerGame {
			rows = append(rows, []string{
				stat.GameIcon,
				stat.GameName,
				strconv.Itoa(stat.GamesPlayed),
				strconv.Itoa(stat.Wins),
				percent(stat.WinRate),
			})
		}
		return table(w, rows)
	})
}

type StreaksCmd struct{}

func (c *StreaksCmd) Run(app *App) error {
	entries, err := app.stats.Streaks(app.ctx)
	if err != nil {
		return err
	}

	return app.print(entries, func(w io.Writer) error {
		rows := [][]string{{"", "PLAYER", "CURRENT", "LONGEST"}}
		for _, entry := range entries {
			rows = append(rows, []string{
				entry.Player.AvatarEmoji,
				entry.Player.Name,
				signed(entry.CurrentStreak),
				strconv.Itoa(entry.LongestWinStreak),
			})
		}
		return table(w, rows)
	})
}

type RivalriesCmd struct{}

func (c *RivalriesCmd) Run(app *App) error {
	rivalries, err := app.stats.Rivalries(app.ctx)
	if err != nil {
		return err
	}

	return app.print(rivalries, func(w io.Writer) error {
		rows := [][]string{{"PLAYERS", "GAMES", "RECORD"}}
		for _, rivalry := range rivalries {
			rows = append(rows, []string{
				fmt.Sprintf("%s vs %s", rivalry.Player1.Name, rivalry.Player2.Name),
				strconv.Itoa(rivalry.GamesPlayed),
				fmt.Sprintf("%d-%d", rivalry.Player1Wins, rivalry.Player2Wins),
			})
		}
		return table(w, rows)
	})
}

type WeeklyCmd struct {
	Weeks int `help:"Number of weeks to show. Defaults to stats.weeks."`
}

func (c *WeeklyCmd) Run(app *App) error {
	weeks := c.Weeks
	if weeks <= 0 {
		weeks = app.settings.Stats.Weeks
	}

	counts, err := app.stats.GamesPerWeek(app.ctx, weeks)
	if err != nil {
		return err
	}

	return app.print(counts, func(w io.Writer) error {
		rows := [][]string{{"WEEK", "GAMES", ""}}
		for _, count := range counts {
			rows = append(rows, []string{
				count.Label,
				strconv.Itoa(count.Count),
				strings.Repeat("█", count.Count),
			})
		}
		return table(w, rows)
	})
}

type TrendCmd struct {
	Player string `arg:"" help:"Player id or name."`
	Window int    `help:"Number of games in the rolling window. Defaults to stats.window."`
}

func (c *TrendCmd) Run(app *App) error {
	player, err := app.player(c.Player)
	if err != nil {
		return err
	}

	window := c.Window
	if window <= 0 {
		window = app.settings.Stats.Window
	}

	points, err := app.stats.WinRateOverTime(app.ctx, player.ID, window)
	if err != nil {
		return err
	}

	return app.print(points, func(w io.Writer) error {
		rows := [][]string{{"GAME", "WIN RATE", ""}}
		for _, point := range points {
			rows = append(rows, []string{
				strconv.Itoa(point.Game),
				fmt.Sprintf("%d%%", point.WinRate),
				strings.Repeat("▪", point.WinRate/10),
			})
		}
		return table(w, rows)
	})
}

type DistributionCmd struct{}

func (c *DistributionCmd) Run(app *App) error {
	counts, err := app.stats.GameTypeDistribution(app.ctx)
	if err != nil {
		return err
	}

	return app.print(counts, func(w io.Writer) error {
		rows := [][]string{{"", "GAME", "SESSIONS"}}
		for _, count := range counts {
			rows = append(rows, []string{count.Icon, count.Name, strconv.Itoa(count.Count)})
		}
		return table(w, rows)
	})
}

type WinsCmd struct {
	Game string `arg:"" help:"Game id or name. Leave out for every game." optional:""`
}

func (c *WinsCmd) Run(app *App) error {
	if c.Game == "" {
		counts, err := app.stats.PlayerWinCounts(app.ctx)
		if err != nil {
			return err
		}

		return app.print(counts, func(w io.Writer) error {
			rows := [][]string{{"", "PLAYER", "WINS", "LOSSES"}}
			for _, count := range counts {
				rows = append(rows, []string{
					count.Player.AvatarEmoji,
					count.Player.Name,
					strconv.Itoa(count.Wins),
					strconv.Itoa(count.Losses),
				})
			}
			return table(w, rows)
		})
	}

	game, err := app.game(c.Game)
	if err != nil {
		return err
	}

	wins, err := app.stats.GameWinDistribution(app.ctx, game.ID)
	if err != nil {
		return err
	}

	return app.print(wins, func(w io.Writer) error {
		rows := [][]string{{"", "PLAYER", "WINS"}}
		for _, entry := range wins {
			rows = append(rows, []string{entry.Player.AvatarEmoji, entry.Player.Name, strconv.Itoa(entry.Wins)})
		}
		return table(w, rows)
	})
}

type HistoryCmd struct {
	Game string `arg:"" help:"Game id or name."`
}

func (c *HistoryCmd) Run(app *App) error {
	game, err := app.game(c.Game)
	if err != nil {
		return err
	}

	entries, err := app.stats.GameScoreHistory(app.ctx, game.ID)
	if err != nil {
		return err
	}

	names, err := app.names()
	if err != nil {
		return err
	}

	return app.print(entries, func(w io.Writer) error {
		rows := [][]string{{"#", "PLAYED", "SCORES"}}
		for _, entry := range entries {
			scores := make([]string, 0, entry.Scores.Len())
			for _, score := range entry.Scores.Entries() {
				scores = append(scores, fmt.Sprintf("%s %d", displayName(names, score.PlayerID), score.Value))
			}
			rows = append(rows, []string{
				strconv.Itoa(entry.Session),
				entry.PlayedAt.Local().Format("2006-01-02"),
				strings.Join(scores, ", "),
			})
		}
		return table(w, rows)
	})
}

type ratingReport struct {
	Player  models.Player `json:"player"`
	Game    models.Game   `json:"game"`
	Rating  int           `json:"rating"`
	History []historyRow  `json:"history"`
}

type historyRow struct {
	SessionID    string            `json:"sessionId"`
	PlayedAt     time.Time         `json:"playedAt"`
	Outcome      models.EloOutcome `json:"outcome"`
	RatingBefore int               `json:"ratingBefore"`
	RatingAfter  int               `json:"ratingAfter"`
	Delta        int               `json:"delta"`
}

type RatingCmd struct {
	Player string `arg:"" help:"Player id or name."`
	Game   string `arg:"" help:"Game id or name."`
}

func (c *RatingCmd) Run(app *App) error {
	player, err := app.player(c.Player)
	if err != nil {
		return err
	}

	game, err := app.game(c.Game)
	if err != nil {
		return err
	}

	rating, err := app.env.Ratings.Current(app.ctx, player.ID, game.ID)
	if err != nil {
		return err
	}

	history, err := app.env.Ratings.History(app.ctx, player.ID, game.ID)
	if err != nil {
		return err
	}

	report := ratingReport{
		Player:  *player,
		Game:    *game,
		Rating:  rating,
		History: make([]historyRow, 0, len(history)),
	}
	for _, entry := range history {
		report.History = append(report.History, historyRow{
			SessionID:    entry.SessionID,
			PlayedAt:     entry.PlayedAt,
			Outcome:      entry.Outcome,
			RatingBefore: entry.RatingBefore,
			RatingAfter:  entry.RatingAfter,
			Delta:        entry.Delta(),
		})
	}

	return app.print(report, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s: %d at %s\n", player.AvatarEmoji, player.Name, rating, game.Name)
		if len(report.History) == 0 {
			return nil
		}

		rows := [][]string{{"PLAYED", "RESULT", "BEFORE", "AFTER"}}
		for _, row := range report.History {
			after := mmr.Outcome{Delta: row.Delta, Rating: row.RatingAfter}
			rows = append(rows, []string{
				row.PlayedAt.Local().Format("2006-01-02"),
				string(row.Outcome),
				strconv.Itoa(row.RatingBefore),
				after.String(),
			})
		}
		return table(w, rows)
	})
}

type ExportCmd struct {
	File string `arg:"" optional:"" help:"Destination; gzipped when it ends in .gz. Defaults to a dated file in the current directory, or - for standard output."`
}

func (c *ExportCmd) Run(app *App) error {
	if c.File == "-" {
		return app.backups.Export(app.ctx, os.Stdout)
	}

	path := c.File
	if path == "" {
		path = backup.DefaultFilename(time.Now())
	}

	if err := app.backups.WriteFile(app.ctx, path); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Backup to restore. Everything stored now is replaced."`
}

func (c *ImportCmd) Run(app *App) error {
	result, err := app.backups.ReadFile(app.ctx, c.File)
	if err != nil {
		return err
	}

	if err := app.print(result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, result.Message)
		return err
	}); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("nothing was imported")
	}
	return nil
}
