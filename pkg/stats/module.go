// Package stats computes leaderboards, records and time series from the
// history of completed sessions. Nothing here is stored: every call reads
// a fresh snapshot and derives its result from scratch.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"
	"github.com/cfoust/tally/pkg/winner"

	"github.com/rs/zerolog/log"
)

type Engine struct {
	store store.Store
	// Now is the clock time series are anchored to.
	Now func() time.Time
	// Location decides where calendar weeks begin.
	Location *time.Location
}

func NewEngine(s store.Store) *Engine {
	return &Engine{
		store:    s,
		Now:      time.Now,
		Location: time.Local,
	}
}

// played is one completed session joined with its game and score.
type played struct {
	session models.GameSession
	game    *models.Game
	score   models.ScoreData
	// Empty when nobody won
	winner string
}

func (p *played) won(playerID string) bool {
	return p.winner != "" && p.winner == playerID
}

type history struct {
	players []models.Player
	byID    map[string]*models.Player
	games   []models.Game
	// Chronological
	played []played
}

func (h *history) player(id string) (models.Player, bool) {
	player, ok := h.byID[id]
	if !ok {
		return models.Player{ID: id}, false
	}
	return *player, true
}

// load reads every table and joins completed sessions with their game and
// score. Sessions missing either are left out.
func (e *Engine) load(ctx context.Context) (*history, error) {
	tables, err := store.ReadAll(ctx, e.store)
	if err != nil {
		return nil, err
	}

	h := &history{
		players: tables.Players,
		byID:    make(map[string]*models.Player, len(tables.Players)),
		games:   tables.Games,
	}

	for i := range h.players {
		h.byID[h.players[i].ID] = &h.players[i]
	}

	games := make(map[string]*models.Game, len(tables.Games))
	for i := range h.games {
		games[h.games[i].ID] = &h.games[i]
	}

	scores := make(map[string]models.ScoreData, len(tables.Scores))
	for _, score := range tables.Scores {
		scores[score.Base().SessionID] = score
	}

	for _, session := range tables.Sessions {
		if session.Status != models.SessionCompleted {
			continue
		}

		game, ok := games[session.GameID]
		if !ok {
			log.Warn().
				Str("session", session.ID).
				Str("game", session.GameID).
				Msg("skipping session of unknown game")
			continue
		}

		score, ok := scores[session.ID]
		if !ok {
			log.Warn().
				Str("session", session.ID).
				Msg("skipping session without a score")
			continue
		}

		h.played = append(h.played, played{
			session: session,
			game:    game,
			score:   score,
			winner:  winner.ID(score, game),
		})
	}

	sort.SliceStable(h.played, func(i, j int) bool {
		return h.played[i].session.PlayedAt().Before(h.played[j].session.PlayedAt())
	})

	return h, nil
}

func rate(wins, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(wins) / float64(games)
}
