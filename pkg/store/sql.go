package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/utils"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Entity struct {
	ID string `gorm:"primaryKey;size:36"`
}

type Player struct {
	Entity

	Name        string `gorm:"size:64"`
	AvatarEmoji string `gorm:"size:16"`
	AvatarColor string `gorm:"size:16"`
	Created     time.Time
}

type Game struct {
	Entity

	Name        string `gorm:"size:64"`
	ScoringType string `gorm:"not null;size:16;index"`
	Icon        string `gorm:"size:16"`
	Config      datatypes.JSON
	IsCustom    bool
	IsFavourite bool
	Category    string `gorm:"size:16"`
	Created     *time.Time
}

type Session struct {
	Entity

	GameID      string `gorm:"not null;size:36;index"`
	PlayerIDs   datatypes.JSON
	Status      string `gorm:"not null;size:16;index"`
	StartedAt   time.Time
	CompletedAt *time.Time
	Notes       string
}

type Score struct {
	Entity

	// One score per session
	SessionID string `gorm:"not null;uniqueIndex;size:36"`
	Type      string `gorm:"not null;size:16"`
	Payload   datatypes.JSON
}

// InitDB opens (or creates) the sqlite database at path and migrates it.
func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&Player{},
		&Game{},
		&Session{},
		&Score{},
	)
	if err != nil {
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return db, nil
}

// SQLStore keeps the tables in a relational database through gorm.
type SQLStore struct {
	db      *gorm.DB
	changes *utils.Topic[Change]
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{
		db:      db,
		changes: utils.NewTopic[Change](),
	}
}

// OpenSQLite is InitDB followed by NewSQLStore.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Changes() *utils.Topic[Change] {
	return s.changes
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func playerRow(player *models.Player) Player {
	return Player{
		Entity:      Entity{ID: player.ID},
		Name:        player.Name,
		AvatarEmoji: player.AvatarEmoji,
		AvatarColor: player.AvatarColor,
		Created:     player.CreatedAt,
	}
}

func (p *Player) Model() models.Player {
	return models.Player{
		ID:          p.ID,
		Name:        p.Name,
		AvatarEmoji: p.AvatarEmoji,
		AvatarColor: p.AvatarColor,
		CreatedAt:   p.Created,
	}
}

func gameRow(game *models.Game) (Game, error) {
	config, err := json.Marshal(game.Config)
	if err != nil {
		return Game{}, err
	}

	return Game{
		Entity:      Entity{ID: game.ID},
		Name:        game.Name,
		ScoringType: string(game.ScoringType),
		Icon:        game.Icon,
		Config:      datatypes.JSON(config),
		IsCustom:    game.IsCustom,
		IsFavourite: game.IsFavourite,
		Category:    string(game.Category),
		Created:     game.CreatedAt,
	}, nil
}

func (g *Game) Model() (models.Game, error) {
	game := models.Game{
		ID:          g.ID,
		Name:        g.Name,
		ScoringType: models.ScoringType(g.ScoringType),
		Icon:        g.Icon,
		IsCustom:    g.IsCustom,
		IsFavourite: g.IsFavourite,
		Category:    models.Category(g.Category),
		CreatedAt:   g.Created,
	}

	if len(g.Config) > 0 {
		if err := json.Unmarshal(g.Config, &game.Config); err != nil {
			return game, fmt.Errorf("could not decode config of game %s: %w", g.ID, err)
		}
	}

	return game, nil
}

func sessionRow(session *models.GameSession) (Session, error) {
	players, err := json.Marshal(session.PlayerIDs)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Entity:      Entity{ID: session.ID},
		GameID:      session.GameID,
		PlayerIDs:   datatypes.JSON(players),
		Status:      string(session.Status),
		StartedAt:   session.StartedAt,
		CompletedAt: session.CompletedAt,
		Notes:       session.Notes,
	}, nil
}

func (s *Session) Model() (models.GameSession, error) {
	session := models.GameSession{
		ID:          s.ID,
		GameID:      s.GameID,
		Status:      models.SessionStatus(s.Status),
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Notes:       s.Notes,
	}

	if len(s.PlayerIDs) > 0 {
		if err := json.Unmarshal(s.PlayerIDs, &session.PlayerIDs); err != nil {
			return session, fmt.Errorf("could not decode players of session %s: %w", s.ID, err)
		}
	}

	return session, nil
}

func scoreRow(score models.ScoreData) (Score, error) {
	payload, err := json.Marshal(score)
	if err != nil {
		return Score{}, err
	}

	base := score.Base()
	return Score{
		Entity:    Entity{ID: base.ID},
		SessionID: base.SessionID,
		Type:      string(score.Type()),
		Payload:   datatypes.JSON(payload),
	}, nil
}

func (s *Score) Model() (models.ScoreData, error) {
	score, err := models.DecodeScore(s.Payload)
	if err != nil {
		return nil, fmt.Errorf("could not decode score %s: %w", s.ID, err)
	}

	base := score.Base()
	base.ID = s.ID
	base.SessionID = s.SessionID
	return score, nil
}

func (s *SQLStore) Players(ctx context.Context) ([]models.Player, error) {
	var rows []Player
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}

	players := make([]models.Player, 0, len(rows))
	for i := range rows {
		players = append(players, rows[i].Model())
	}
	return players, nil
}

func (s *SQLStore) Player(ctx context.Context, id string) (*models.Player, error) {
	var row Player
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}

	player := row.Model()
	return &player, nil
}

func (s *SQLStore) AddPlayer(ctx context.Context, player *models.Player) error {
	if player.ID == "" {
		player.ID = NewID()
	}

	row := playerRow(player)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TablePlayers, Op: OpInsert, ID: player.ID})
	return nil
}

func (s *SQLStore) UpdatePlayer(ctx context.Context, id string, patch models.PlayerPatch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Player
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return notFound(err)
		}

		player := row.Model()
		patch.Apply(&player)
		row = playerRow(&player)
		return tx.Save(&row).Error
	})
	if err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TablePlayers, Op: OpUpdate, ID: id})
	return nil
}

func (s *SQLStore) DeletePlayer(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Player{}).Error
	if err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TablePlayers, Op: OpDelete, ID: id})
	return nil
}

func (s *SQLStore) Games(ctx context.Context) ([]models.Game, error) {
	var rows []Game
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}

	games := make([]models.Game, 0, len(rows))
	for i := range rows {
		game, err := rows[i].Model()
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

func (s *SQLStore) Game(ctx context.Context, id string) (*models.Game, error) {
	var row Game
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}

	game, err := row.Model()
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *SQLStore) AddGame(ctx context.Context, game *models.Game) error {
	if !game.ScoringType.Valid() {
		return fmt.Errorf("invalid scoring type %q", game.ScoringType)
	}

	if game.ID == "" {
		game.ID = NewID()
	}

	row, err := gameRow(game)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TableGames, Op: OpInsert, ID: game.ID, GameID: game.ID})
	return nil
}

func (s *SQLStore) UpdateGame(ctx context.Context, id string, patch models.GamePatch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Game
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return notFound(err)
		}

		game, err := row.Model()
		if err != nil {
			return err
		}

		if err := patch.Apply(&game); err != nil {
			return err
		}

		row, err = gameRow(&game)
		if err != nil {
			return err
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TableGames, Op: OpUpdate, ID: id, GameID: id})
	return nil
}

func (s *SQLStore) DeleteGame(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Game{}).Error
	if err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TableGames, Op: OpDelete, ID: id, GameID: id})
	return nil
}

func sessionModels(rows []Session) ([]models.GameSession, error) {
	sessions := make([]models.GameSession, 0, len(rows))
	for i := range rows {
		session, err := rows[i].Model()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SQLStore) Sessions(ctx context.Context) ([]models.GameSession, error) {
	var rows []Session
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	return sessionModels(rows)
}

func (s *SQLStore) Session(ctx context.Context, id string) (*models.GameSession, error) {
	var row Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}

	session, err := row.Model()
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SQLStore) FindSessions(ctx context.Context, filter SessionFilter) ([]models.GameSession, error) {
	query := s.db.WithContext(ctx).Order("rowid")
	if filter.GameID != "" {
		query = query.Where("game_id = ?", filter.GameID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var rows []Session
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	all, err := sessionModels(rows)
	if err != nil {
		return nil, err
	}

	// Participants live in a JSON column, so that part of the filter runs here
	sessions := make([]models.GameSession, 0, len(all))
	for i := range all {
		if filter.Match(&all[i]) {
			sessions = append(sessions, all[i])
		}
	}

	sortByPlayed(sessions)
	return sessions, nil
}

func (s *SQLStore) AddSession(ctx context.Context, session *models.GameSession) error {
	if session.ID == "" {
		session.ID = NewID()
	}

	row, err := sessionRow(session)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TableSessions, Op: OpInsert, ID: session.ID, GameID: session.GameID})
	return nil
}

func (s *SQLStore) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) error {
	var gameID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Session
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return notFound(err)
		}

		session, err := row.Model()
		if err != nil {
			return err
		}

		patch.Apply(&session)
		gameID = session.GameID

		row, err = sessionRow(&session)
		if err != nil {
			return err
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TableSessions, Op: OpUpdate, ID: id, GameID: gameID})
	return nil
}

func (s *SQLStore) Scores(ctx context.Context) ([]models.ScoreData, error) {
	var rows []Score
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}

	scores := make([]models.ScoreData, 0, len(rows))
	for i := range rows {
		score, err := rows[i].Model()
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, nil
}

func (s *SQLStore) ScoreForSession(ctx context.Context, sessionID string) (models.ScoreData, error) {
	var row Score
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	return row.Model()
}

func (s *SQLStore) SaveScore(ctx context.Context, score models.ScoreData) error {
	base := score.Base()
	if base.SessionID == "" {
		return fmt.Errorf("score has no session")
	}

	op := OpInsert
	var gameID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Score
		err := tx.Where("session_id = ?", base.SessionID).First(&existing).Error
		switch {
		case err == nil:
			op = OpUpdate
			base.ID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if base.ID == "" {
				base.ID = NewID()
			}
		default:
			return err
		}

		var session Session
		if err := tx.Select("game_id").Where("id = ?", base.SessionID).First(&session).Error; err == nil {
			gameID = session.GameID
		}

		row, err := scoreRow(score)
		if err != nil {
			return err
		}

		if op == OpUpdate {
			return tx.Save(&row).Error
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return err
	}

	s.changes.Publish(Change{Table: TableScores, Op: op, ID: base.ID, GameID: gameID})
	return nil
}

func (s *SQLStore) Replace(ctx context.Context, tables Tables) error {
	players := make([]Player, 0, len(tables.Players))
	for i := range tables.Players {
		players = append(players, playerRow(&tables.Players[i]))
	}

	games := make([]Game, 0, len(tables.Games))
	for i := range tables.Games {
		row, err := gameRow(&tables.Games[i])
		if err != nil {
			return err
		}
		games = append(games, row)
	}

	sessions := make([]Session, 0, len(tables.Sessions))
	for i := range tables.Sessions {
		row, err := sessionRow(&tables.Sessions[i])
		if err != nil {
			return err
		}
		sessions = append(sessions, row)
	}

	scores := make([]Score, 0, len(tables.Scores))
	for _, score := range tables.Scores {
		row, err := scoreRow(score)
		if err != nil {
			return err
		}
		scores = append(scores, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&Player{}, &Game{}, &Session{}, &Score{}} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return err
			}
		}

		if len(players) > 0 {
			if err := tx.Create(&players).Error; err != nil {
				return err
			}
		}
		if len(games) > 0 {
			if err := tx.Create(&games).Error; err != nil {
				return err
			}
		}
		if len(sessions) > 0 {
			if err := tx.Create(&sessions).Error; err != nil {
				return err
			}
		}
		if len(scores) > 0 {
			if err := tx.Create(&scores).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, table := range []Table{TablePlayers, TableGames, TableSessions, TableScores} {
		s.changes.Publish(Change{Table: table, Op: OpReplace})
	}
	return nil
}
