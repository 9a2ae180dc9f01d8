package stats

import (
	"context"
	"sort"

	"github.com/cfoust/tally/pkg/models"
)

type LeaderboardEntry struct {
	Player      models.Player `json:"player"`
	GamesPlayed int           `json:"gamesPlayed"`
	Wins        int           `json:"wins"`
	WinRate     float64       `json:"winRate"`
}

// Leaderboard ranks players by win rate, then by wins. An empty gameID
// covers every game. Players without a game in scope are left out.
func (e *Engine) Leaderboard(ctx context.Context, gameID string) ([]LeaderboardEntry, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0)
	for _, player := range h.players {
		entry := LeaderboardEntry{Player: player}
		for i := range h.played {
			game := &h.played[i]
			if gameID != "" && game.session.GameID != gameID {
				continue
			}
			if !game.session.Has(player.ID) {
				continue
			}

			entry.GamesPlayed++
			if game.won(player.ID) {
				entry.Wins++
			}
		}

		if entry.GamesPlayed == 0 {
			continue
		}

		entry.WinRate = rate(entry.Wins, entry.GamesPlayed)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WinRate != entries[j].WinRate {
			return entries[i].WinRate > entries[j].WinRate
		}
		return entries[i].Wins > entries[j].Wins
	})

	return entries, nil
}

type HeadToHeadRecord struct {
	Player1Wins int `json:"player1Wins"`
	Player2Wins int `json:"player2Wins"`
	// Sessions neither of them won, including ones with no winner at all
	Draws      int `json:"draws"`
	TotalGames int `json:"totalGames"`
}

// HeadToHead compares two players over the sessions they both took part in.
func (e *Engine) HeadToHead(ctx context.Context, player1, player2 string) (HeadToHeadRecord, error) {
	var record HeadToHeadRecord

	h, err := e.load(ctx)
	if err != nil {
		return record, err
	}

	for i := range h.played {
		game := &h.played[i]
		if !game.session.Has(player1) || !game.session.Has(player2) {
			continue
		}

		record.TotalGames++
		switch {
		case game.won(player1):
			record.Player1Wins++
		case game.won(player2):
			record.Player2Wins++
		default:
			record.Draws++
		}
	}

	return record, nil
}

type GameStat struct {
	GameID      string  `json:"gameId"`
	GameName    string  `json:"gameName"`
	GameIcon    string  `json:"gameIcon"`
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"winRate"`
}

type Profile struct {
	TotalGames     int        `json:"totalGames"`
	TotalWins      int        `json:"totalWins"`
	OverallWinRate float64    `json:"overallWinRate"`
	PerGame        []GameStat `json:"perGame"`
	// Only games played at least twice qualify
	BestGame  *GameStat `json:"bestGame"`
	WorstGame *GameStat `json:"worstGame"`
	// Last ten results, oldest first; true is a win
	RecentForm []bool `json:"recentForm"`
	// Positive for a run of wins, negative for a run of losses
	CurrentStreak int `json:"currentStreak"`
}

const (
	recentFormSize     = 10
	minQualifyingGames = 2
)

func (e *Engine) PlayerProfile(ctx context.Context, playerID string) (*Profile, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		PerGame:    make([]GameStat, 0),
		RecentForm: make([]bool, 0),
	}

	var (
		results []bool
		run     streak
		order   []string
	)
	perGame := make(map[string]*GameStat)

	for i := range h.played {
		game := &h.played[i]
		if !game.session.Has(playerID) {
			continue
		}

		won := game.won(playerID)
		results = append(results, won)
		run.record(won)

		profile.TotalGames++
		if won {
			profile.TotalWins++
		}

		stat, ok := perGame[game.game.ID]
		if !ok {
			stat = &GameStat{
				GameID:   game.game.ID,
				GameName: game.game.Name,
				GameIcon: game.game.Icon,
			}
			perGame[game.game.ID] = stat
			order = append(order, game.game.ID)
		}

		stat.GamesPlayed++
		if won {
			stat.Wins++
		}
	}

	profile.OverallWinRate = rate(profile.TotalWins, profile.TotalGames)
	profile.CurrentStreak = run.current

	for _, id := range order {
		stat := perGame[id]
		stat.WinRate = rate(stat.Wins, stat.GamesPlayed)
		profile.PerGame = append(profile.PerGame, *stat)
	}

	sort.SliceStable(profile.PerGame, func(i, j int) bool {
		return profile.PerGame[i].GamesPlayed > profile.PerGame[j].GamesPlayed
	})

	best, worst := -1, -1
	for i, stat := range profile.PerGame {
		if stat.GamesPlayed < minQualifyingGames {
			continue
		}

		// Later games win ties on both ends
		if best < 0 || !(profile.PerGame[best].WinRate > stat.WinRate) {
			best = i
		}
		if worst < 0 || !(profile.PerGame[worst].WinRate < stat.WinRate) {
			worst = i
		}
	}

	if best >= 0 {
		stat := profile.PerGame[best]
		profile.BestGame = &stat
	}
	if worst >= 0 && worst != best {
		stat := profile.PerGame[worst]
		profile.WorstGame = &stat
	}

	if len(results) > recentFormSize {
		results = results[len(results)-recentFormSize:]
	}
	profile.RecentForm = append(profile.RecentForm, results...)

	return profile, nil
}

type WinCount struct {
	Player models.Player `json:"player"`
	Wins   int           `json:"wins"`
	// Sessions someone else won
	Losses int `json:"losses"`
}

// PlayerWinCounts tallies wins and losses for every player. Sessions
// without a winner count as neither.
func (e *Engine) PlayerWinCounts(ctx context.Context) ([]WinCount, error) {
	h, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]WinCount, 0)
	for _, player := range h.players {
		count := WinCount{Player: player}
		for i := range h.played {
			game := &h.played[i]
			if game.winner == "" || !game.session.Has(player.ID) {
				continue
			}

			if game.won(player.ID) {
				count.Wins++
			} else {
				count.Losses++
			}
		}

		if count.Wins+count.Losses == 0 {
			continue
		}
		counts = append(counts, count)
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Wins > counts[j].Wins
	})

	return counts, nil
}
