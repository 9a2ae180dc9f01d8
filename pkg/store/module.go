// Package store is the persistence boundary. Everything above it reads and
// writes whole records; storage errors are returned unchanged in meaning
// (wrapped with context) and never retried here.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Table string

const (
	TablePlayers  Table = "players"
	TableGames    Table = "games"
	TableSessions Table = "sessions"
	TableScores   Table = "scores"
)

type Op string

const (
	OpInsert  Op = "insert"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Change is published after every successful write.
type Change struct {
	Table Table
	Op    Op
	ID    string
	// Set for session and score changes when the session is known
	GameID string
}

// Tables is the full content of the four tables.
type Tables struct {
	Players  []models.Player
	Games    []models.Game
	Sessions []models.GameSession
	Scores   []models.ScoreData
}

// Validate checks what the tables' keys require: unique ids in each table
// and at most one score per session.
func (t Tables) Validate() error {
	unique := func(table Table, ids []string) error {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				return fmt.Errorf("%w: %s %q", ErrDuplicate, table, id)
			}
			seen[id] = struct{}{}
		}
		return nil
	}

	players := make([]string, 0, len(t.Players))
	for _, player := range t.Players {
		players = append(players, player.ID)
	}
	if err := unique(TablePlayers, players); err != nil {
		return err
	}

	games := make([]string, 0, len(t.Games))
	for _, game := range t.Games {
		games = append(games, game.ID)
	}
	if err := unique(TableGames, games); err != nil {
		return err
	}

	sessions := make([]string, 0, len(t.Sessions))
	for _, session := range t.Sessions {
		sessions = append(sessions, session.ID)
	}
	if err := unique(TableSessions, sessions); err != nil {
		return err
	}

	scores := make([]string, 0, len(t.Scores))
	scored := make([]string, 0, len(t.Scores))
	for _, score := range t.Scores {
		base := score.Base()
		scores = append(scores, base.ID)
		scored = append(scored, base.SessionID)
	}
	if err := unique(TableScores, scores); err != nil {
		return err
	}
	if err := unique(TableScores, scored); err != nil {
		return fmt.Errorf("more than one score for a session: %w", err)
	}

	return nil
}

type SessionFilter struct {
	GameID   string
	PlayerID string
	Status   models.SessionStatus
}

func (f SessionFilter) Match(session *models.GameSession) bool {
	if f.GameID != "" && session.GameID != f.GameID {
		return false
	}
	if f.Status != "" && session.Status != f.Status {
		return false
	}
	if f.PlayerID != "" && !session.Has(f.PlayerID) {
		return false
	}
	return true
}

type Store interface {
	Players(ctx context.Context) ([]models.Player, error)
	Player(ctx context.Context, id string) (*models.Player, error)
	// AddPlayer assigns an id when the player has none.
	AddPlayer(ctx context.Context, player *models.Player) error
	UpdatePlayer(ctx context.Context, id string, patch models.PlayerPatch) error
	// DeletePlayer leaves sessions referencing the player untouched.
	DeletePlayer(ctx context.Context, id string) error

	Games(ctx context.Context) ([]models.Game, error)
	Game(ctx context.Context, id string) (*models.Game, error)
	AddGame(ctx context.Context, game *models.Game) error
	UpdateGame(ctx context.Context, id string, patch models.GamePatch) error
	DeleteGame(ctx context.Context, id string) error

	Sessions(ctx context.Context) ([]models.GameSession, error)
	Session(ctx context.Context, id string) (*models.GameSession, error)
	// FindSessions returns matching sessions ordered by when they were
	// played, oldest first.
	FindSessions(ctx context.Context, filter SessionFilter) ([]models.GameSession, error)
	AddSession(ctx context.Context, session *models.GameSession) error
	UpdateSession(ctx context.Context, id string, patch models.SessionPatch) error

	Scores(ctx context.Context) ([]models.ScoreData, error)
	ScoreForSession(ctx context.Context, sessionID string) (models.ScoreData, error)
	// SaveScore inserts the record or updates the one already stored for
	// the same session, which keeps its id.
	SaveScore(ctx context.Context, score models.ScoreData) error

	// Replace clears all four tables and inserts the given contents. Either
	// everything is applied or nothing is.
	Replace(ctx context.Context, tables Tables) error

	Changes() *utils.Topic[Change]
}

// ReadAll fetches the content of every table.
func ReadAll(ctx context.Context, s Store) (*Tables, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}

	games, err := s.Games(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}

	return &Tables{
		Players:  players,
		Games:    games,
		Sessions: sessions,
		Scores:   scores,
	}, nil
}

func NewID() string {
	return uuid.NewString()
}

func sortByPlayed(sessions []models.GameSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].PlayedAt().Before(sessions[j].PlayedAt())
	})
}
