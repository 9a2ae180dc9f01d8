package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/utils"

	"github.com/sasha-s/go-deadlock"
)

// MemoryStore keeps every table in process memory, in insertion order.
// Records are copied on the way in and out.
type MemoryStore struct {
	players  []models.Player
	games    []models.Game
	sessions []models.GameSession
	scores   []models.ScoreData

	changes *utils.Topic[Change]
	mutex   deadlock.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		changes: utils.NewTopic[Change](),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Changes() *utils.Topic[Change] {
	return m.changes
}

func copySession(session models.GameSession) models.GameSession {
	session.PlayerIDs = append([]string(nil), session.PlayerIDs...)
	if session.CompletedAt != nil {
		completed := *session.CompletedAt
		session.CompletedAt = &completed
	}
	return session
}

func copyGame(game models.Game) models.Game {
	if game.Config.TargetScore != nil {
		game.Config.TargetScore = models.IntPtr(*game.Config.TargetScore)
	}
	if game.CreatedAt != nil {
		created := *game.CreatedAt
		game.CreatedAt = &created
	}
	return game
}

func copyScore(score models.ScoreData) (models.ScoreData, error) {
	data, err := json.Marshal(score)
	if err != nil {
		return nil, err
	}
	return models.DecodeScore(data)
}

func (m *MemoryStore) Players(ctx context.Context) ([]models.Player, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]models.Player(nil), m.players...), nil
}

func (m *MemoryStore) findPlayer(id string) int {
	for i, player := range m.players {
		if player.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) Player(ctx context.Context, id string) (*models.Player, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i := m.findPlayer(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	player := m.players[i]
	return &player, nil
}

func (m *MemoryStore) AddPlayer(ctx context.Context, player *models.Player) error {
	m.mutex.Lock()
	if player.ID == "" {
		player.ID = NewID()
	}
	if m.findPlayer(player.ID) >= 0 {
		m.mutex.Unlock()
		return fmt.Errorf("player %s already exists", player.ID)
	}
	m.players = append(m.players, *player)
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TablePlayers, Op: OpInsert, ID: player.ID})
	return nil
}

func (m *MemoryStore) UpdatePlayer(ctx context.Context, id string, patch models.PlayerPatch) error {
	m.mutex.Lock()
	i := m.findPlayer(id)
	if i < 0 {
		m.mutex.Unlock()
		return ErrNotFound
	}
	patch.Apply(&m.players[i])
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TablePlayers, Op: OpUpdate, ID: id})
	return nil
}

func (m *MemoryStore) DeletePlayer(ctx context.Context, id string) error {
	m.mutex.Lock()
	i := m.findPlayer(id)
	if i < 0 {
		m.mutex.Unlock()
		return nil
	}
	m.players = append(m.players[:i], m.players[i+1:]...)
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TablePlayers, Op: OpDelete, ID: id})
	return nil
}

func (m *MemoryStore) Games(ctx context.Context) ([]models.Game, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	games := make([]models.Game, 0, len(m.games))
	for _, game := range m.games {
		games = append(games, copyGame(game))
	}
	return games, nil
}

func (m *MemoryStore) findGame(id string) int {
	for i, game := range m.games {
		if game.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) Game(ctx context.Context, id string) (*models.Game, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i := m.findGame(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	game := copyGame(m.games[i])
	return &game, nil
}

func (m *MemoryStore) AddGame(ctx context.Context, game *models.Game) error {
	if !game.ScoringType.Valid() {
		return fmt.Errorf("invalid scoring type %q", game.ScoringType)
	}

	m.mutex.Lock()
	if game.ID == "" {
		game.ID = NewID()
	}
	if m.findGame(game.ID) >= 0 {
		m.mutex.Unlock()
		return fmt.Errorf("game %s already exists", game.ID)
	}
	m.games = append(m.games, copyGame(*game))
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TableGames, Op: OpInsert, ID: game.ID, GameID: game.ID})
	return nil
}

func (m *MemoryStore) UpdateGame(ctx context.Context, id string, patch models.GamePatch) error {
	m.mutex.Lock()
	i := m.findGame(id)
	if i < 0 {
		m.mutex.Unlock()
		return ErrNotFound
	}
	game := copyGame(m.games[i])
	if err := patch.Apply(&game); err != nil {
		m.mutex.Unlock()
		return err
	}
	m.games[i] = game
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TableGames, Op: OpUpdate, ID: id, GameID: id})
	return nil
}

func (m *MemoryStore) DeleteGame(ctx context.Context, id string) error {
	m.mutex.Lock()
	i := m.findGame(id)
	if i < 0 {
		m.mutex.Unlock()
		return nil
	}
	m.games = append(m.games[:i], m.games[i+1:]...)
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TableGames, Op: OpDelete, ID: id, GameID: id})
	return nil
}

func (m *MemoryStore) Sessions(ctx context.Context) ([]models.GameSession, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sessions := make([]models.GameSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, copySession(session))
	}
	return sessions, nil
}

func (m *MemoryStore) findSession(id string) int {
	for i, session := range m.sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) Session(ctx context.Context, id string) (*models.GameSession, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i := m.findSession(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	session := copySession(m.sessions[i])
	return &session, nil
}

func (m *MemoryStore) FindSessions(ctx context.Context, filter SessionFilter) ([]models.GameSession, error) {
	m.mutex.RLock()
	sessions := make([]models.GameSession, 0)
	for i := range m.sessions {
		if filter.Match(&m.sessions[i]) {
			sessions = append(sessions, copySession(m.sessions[i]))
		}
	}
	m.mutex.RUnlock()

	sortByPlayed(sessions)
	return sessions, nil
}

func (m *MemoryStore) AddSession(ctx context.Context, session *models.GameSession) error {
	m.mutex.Lock()
	if session.ID == "" {
		session.ID = NewID()
	}
	if m.findSession(session.ID) >= 0 {
		m.mutex.Unlock()
		return fmt.Errorf("session %s already exists", session.ID)
	}
	m.sessions = append(m.sessions, copySession(*session))
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TableSessions, Op: OpInsert, ID: session.ID, GameID: session.GameID})
	return nil
}

func (m *MemoryStore) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) error {
	m.mutex.Lock()
	i := m.findSession(id)
	if i < 0 {
		m.mutex.Unlock()
		return ErrNotFound
	}
	patch.Apply(&m.sessions[i])
	gameID := m.sessions[i].GameID
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TableSessions, Op: OpUpdate, ID: id, GameID: gameID})
	return nil
}

func (m *MemoryStore) Scores(ctx context.Context) ([]models.ScoreData, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	scores := make([]models.ScoreData, 0, len(m.scores))
	for _, score := range m.scores {
		copied, err := copyScore(score)
		if err != nil {
			return nil, err
		}
		scores = append(scores, copied)
	}
	return scores, nil
}

func (m *MemoryStore) findScore(sessionID string) int {
	for i, score := range m.scores {
		if score.Base().SessionID == sessionID {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) ScoreForSession(ctx context.Context, sessionID string) (models.ScoreData, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i := m.findScore(sessionID)
	if i < 0 {
		return nil, ErrNotFound
	}
	return copyScore(m.scores[i])
}

func (m *MemoryStore) SaveScore(ctx context.Context, score models.ScoreData) error {
	base := score.Base()
	if base.SessionID == "" {
		return fmt.Errorf("score has no session")
	}

	m.mutex.Lock()
	op := OpInsert
	i := m.findScore(base.SessionID)
	if i >= 0 {
		op = OpUpdate
		base.ID = m.scores[i].Base().ID
	} else if base.ID == "" {
		base.ID = NewID()
	}

	copied, err := copyScore(score)
	if err != nil {
		m.mutex.Unlock()
		return err
	}

	if i >= 0 {
		m.scores[i] = copied
	} else {
		m.scores = append(m.scores, copied)
	}

	var gameID string
	if j := m.findSession(base.SessionID); j >= 0 {
		gameID = m.sessions[j].GameID
	}
	m.mutex.Unlock()

	m.changes.Publish(Change{Table: TableScores, Op: op, ID: base.ID, GameID: gameID})
	return nil
}

func (m *MemoryStore) Replace(ctx context.Context, tables Tables) error {
	if err := tables.Validate(); err != nil {
		return err
	}

	scores := make([]models.ScoreData, 0, len(tables.Scores))
	for _, score := range tables.Scores {
		copied, err := copyScore(score)
		if err != nil {
			return err
		}
		scores = append(scores, copied)
	}

	games := make([]models.Game, 0, len(tables.Games))
	for _, game := range tables.Games {
		games = append(games, copyGame(game))
	}

	sessions := make([]models.GameSession, 0, len(tables.Sessions))
	for _, session := range tables.Sessions {
		sessions = append(sessions, copySession(session))
	}

	m.mutex.Lock()
	m.players = append([]models.Player(nil), tables.Players...)
	m.games = games
	m.sessions = sessions
	m.scores = scores
	m.mutex.Unlock()

	for _, table := range []Table{TablePlayers, TableGames, TableSessions, TableScores} {
		m.changes.Publish(Change{Table: table, Op: OpReplace})
	}
	return nil
}
