package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cfoust/tally/pkg/models"

	"github.com/jinzhu/now"
)

type WeekCount struct {
	// Sunday that begins the week
	Start time.Time `json:"start"`
	// day/month of Start
	Label string `json:"week"`
	Count int    `json:"count"`
}

func (e *Engine) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

func (e *Engine) weekStart(t time.Time) time.Time {
	loc := e.location()
	config := &now.Config{
		WeekStartDay: time.Sunday,
		TimeLocation: loc,
	}
	return config.With(t.In(loc)).BeginningOfWeek()
}

// GamesPerWeek counts completed sessions in each of the last weeks
// calendar weeks, oldest first, including the current one.
func (e *Engine) GamesPerWeek(ctx context.Context, weeks int) ([]WeekCount, error) {
	counts := make([]WeekCount, 0)
	if weeks <= 0 {
		return counts, nil
	}

	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	current := e.weekStart(e.Now())
	for i := weeks - 1; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		counts = append(counts, WeekCount{
			Start: start,
			Label: fmt.Sprintf("%d/%d", start.Day(), int(start.Month())),
		})
	}

	first := counts[0].Start
	for i := range h.played {
		playedAt := h.played[i].session.PlayedAt()
		if playedAt.Before(first) {
			continue
		}

		start := e.weekStart(playedAt)
		for j := range counts {
			if counts[j].Start.Equal(start) {
				counts[j].Count++
				break
			}
		}
	}

	return counts, nil
}

type WinRatePoint struct {
	// 1-based index of the game in the player's history
	Game int `json:"game"`
	// Percent, 0 to 100
	WinRate int `json:"winRate"`
}

const DefaultWindow = 5

// WinRateOverTime gives one point per game the player took part in: their
// win rate over that game and up to window-1 games before it. Fewer than
// two games yield no points.
func (e *Engine) WinRateOverTime(ctx context.Context, playerID string, window int) ([]WinRatePoint, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	var results []bool
	for i := range h.played {
		game := &h.played[i]
		if game.session.Has(playerID) {
			results = append(results, game.won(playerID))
		}
	}

	points := make([]WinRatePoint, 0)
	if len(results) < 2 {
		return points, nil
	}

	for i := range results {
		start := i - window + 1
		if start < 0 {
			start = 0
		}

		wins := 0
		for _, won := range results[start : i+1] {
			if won {
				wins++
			}
		}

		points = append(points, WinRatePoint{
			Game:    i + 1,
			WinRate: int(math.Round(rate(wins, i+1-start) * 100)),
		})
	}

	return points, nil
}

type GameCount struct {
	GameID string `json:"gameId"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Count  int    `json:"count"`
}

// GameTypeDistribution counts completed sessions per game, most played
// first.
func (e *Engine) GameTypeDistribution(ctx context.Context) ([]GameCount, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]GameCount, 0)
	index := make(map[string]int)
	for i := range h.played {
		game := h.played[i].game
		j, ok := index[game.ID]
		if !ok {
			j = len(counts)
			index[game.ID] = j
			counts = append(counts, GameCount{
				GameID: game.ID,
				Name:   game.Name,
				Icon:   game.Icon,
			})
		}
		counts[j].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts, nil
}

type PlayerWins struct {
	Player models.Player `json:"player"`
	Wins   int           `json:"wins"`
}

// GameWinDistribution counts the wins of each player in one game, most
// wins first.
func (e *Engine) GameWinDistribution(ctx context.Context, gameID string) ([]PlayerWins, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	wins := make([]PlayerWins, 0)
	index := make(map[string]int)
	for i := range h.played {
		game := &h.played[i]
		if game.session.GameID != gameID || game.winner == "" {
			continue
		}

		j, ok := index[game.winner]
		if !ok {
			player, found := h.player(game.winner)
			if !found {
				player.Name = "Unknown"
				player.AvatarEmoji = "?"
				player.AvatarColor = "#888"
			}

			j = len(wins)
			index[game.winner] = j
			wins = append(wins, PlayerWins{Player: player})
		}
		wins[j].Wins++
	}

	sort.SliceStable(wins, func(i, j int) bool {
		return wins[i].Wins > wins[j].Wins
	})

	return wins, nil
}

type ScoreHistoryEntry struct {
	// 1-based position among the game's completed sessions
	Session   int          `json:"session"`
	SessionID string       `json:"sessionId"`
	PlayedAt  time.Time    `json:"playedAt"`
	Scores    models.Tally `json:"scores"`
}

// GameScoreHistory lists the final scores of every completed session of a
// game, for games that keep points.
func (e *Engine) GameScoreHistory(ctx context.Context, gameID string) ([]ScoreHistoryEntry, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ScoreHistoryEntry, 0)
	position := 0
	for i := range h.played {
		game := &h.played[i]
		if game.session.GameID != gameID {
			continue
		}
		position++

		var scores models.Tally
		switch score := game.score.(type) {
		case *models.FinalScoreResult:
			scores = score.Scores
		case *models.RoundBasedScore:
			scores = score.FinalTotals
		case *models.RaceScore:
			scores = score.Scores
		}

		if scores.Len() == 0 {
			continue
		}

		entries = append(entries, ScoreHistoryEntry{
			Session:   position,
			SessionID: game.session.ID,
			PlayedAt:  game.session.PlayedAt(),
			Scores:    scores.Clone(),
		})
	}

	return entries, nil
}
