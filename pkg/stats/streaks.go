package stats

import (
	"context"
	"sort"

	"github.com/cfoust/tally/pkg/models"
)

// streak follows a run of identical results. current is positive for
// wins and negative for losses.
type streak struct {
	current     int
	longestWins int
}

func (s *streak) record(won bool) {
	if won {
		if s.current <= 0 {
			s.current = 1
		} else {
			s.current++
		}
	} else {
		if s.current >= 0 {
			s.current = -1
		} else {
			s.current--
		}
	}

	if s.current > s.longestWins {
		s.longestWins = s.current
	}
}

type StreakEntry struct {
	Player           models.Player `json:"player"`
	CurrentStreak    int           `json:"currentStreak"`
	LongestWinStreak int           `json:"longestWinStreak"`
}

// Streaks reports every player's current and best runs. Sessions with no
// winner neither extend nor break a streak.
func (e *Engine) Streaks(ctx context.Context) ([]StreakEntry, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	streaks := make(map[string]*streak)
	for i := range h.played {
		game := &h.played[i]
		if game.winner == "" {
			continue
		}

		for _, playerID := range game.session.PlayerIDs {
			s, ok := streaks[playerID]
			if !ok {
				s = &streak{}
				streaks[playerID] = s
			}
			s.record(game.won(playerID))
		}
	}

	entries := make([]StreakEntry, 0, len(streaks))
	for _, player := range h.players {
		s, ok := streaks[player.ID]
		if !ok {
			continue
		}

		entries = append(entries, StreakEntry{
			Player:           player,
			CurrentStreak:    s.current,
			LongestWinStreak: s.longestWins,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CurrentStreak > entries[j].CurrentStreak
	})

	return entries, nil
}

type Rivalry struct {
	Player1     models.Player `json:"player1"`
	Player2     models.Player `json:"player2"`
	GamesPlayed int           `json:"gamesPlayed"`
	Player1Wins int           `json:"player1Wins"`
	Player2Wins int           `json:"player2Wins"`
}

const maxRivalries = 5

func (h *history) rivalPlayer(id string) models.Player {
	player, ok := h.player(id)
	if !ok {
		player.Name = "?"
		player.AvatarEmoji = "❓"
	}
	return player
}

// Rivalries finds the pairs of players who have shared the most sessions.
// Pairs need at least two shared sessions.
func (e *Engine) Rivalries(ctx context.Context) ([]Rivalry, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	type pair struct {
		first, second string
		games         int
		firstWins     int
		secondWins    int
	}

	var order []string
	pairs := make(map[string]*pair)

	for i := range h.played {
		game := &h.played[i]
		players := game.session.PlayerIDs
		for a := 0; a < len(players); a++ {
			for b := a + 1; b < len(players); b++ {
				first, second := players[a], players[b]
				if second < first {
					first, second = second, first
				}

				key := first + "|" + second
				p, ok := pairs[key]
				if !ok {
					p = &pair{first: first, second: second}
					pairs[key] = p
					order = append(order, key)
				}

				p.games++
				switch game.winner {
				case first:
					p.firstWins++
				case second:
					p.secondWins++
				}
			}
		}
	}

	rivalries := make([]Rivalry, 0)
	for _, key := range order {
		p := pairs[key]
		if p.games < 2 {
			continue
		}

		rivalries = append(rivalries, Rivalry{
			Player1:     h.rivalPlayer(p.first),
			Player2:     h.rivalPlayer(p.second),
			GamesPlayed: p.games,
			Player1Wins: p.firstWins,
			Player2Wins: p.secondWins,
		})
	}

	sort.SliceStable(rivalries, func(i, j int) bool {
		return rivalries[i].GamesPlayed > rivalries[j].GamesPlayed
	})

	if len(rivalries) > maxRivalries {
		rivalries = rivalries[:maxRivalries]
	}

	return rivalries, nil
}
