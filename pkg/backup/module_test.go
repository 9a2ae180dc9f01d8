package backup

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportedAt = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func fixed() time.Time { return exportedAt }

func populate(t *testing.T, s store.Store) {
	ctx := context.Background()
	started := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	completed := started.Add(time.Hour)

	for _, player := range []models.Player{
		{ID: "a", Name: "Ana", AvatarEmoji: "🦊", AvatarColor: "#ef4444", CreatedAt: started},
		{ID: "b", Name: "Ben", AvatarEmoji: "🐙", AvatarColor: "#3b82f6", CreatedAt: started},
	} {
		require.NoError(t, s.AddPlayer(ctx, &player))
	}

	game := models.Game{
		ID:          "darts",
		Name:        "Darts",
		ScoringType: models.ScoringTypeRoundBased,
		Icon:        "🎯",
		Config:      models.GameConfig{MinPlayers: 2, MaxPlayers: 8, TargetScore: models.IntPtr(501)},
	}
	require.NoError(t, s.AddGame(ctx, &game))

	session := models.GameSession{
		ID:          "s1",
		GameID:      "darts",
		PlayerIDs:   []string{"b", "a"},
		Status:      models.SessionCompleted,
		StartedAt:   started,
		CompletedAt: &completed,
		Notes:       "close one",
	}
	require.NoError(t, s.AddSession(ctx, &session))

	rounds := []models.ScoringRound{
		{RoundNumber: 1, Scores: models.NewTally(
			models.TallyEntry{PlayerID: "b", Value: 100},
			models.TallyEntry{PlayerID: "a", Value: 60},
		)},
	}
	score := &models.RoundBasedScore{
		ScoreBase:   models.ScoreBase{ID: "r1", SessionID: "s1"},
		Rounds:      rounds,
		FinalTotals: rounds[0].Scores.Clone(),
	}
	require.NoError(t, s.SaveScore(ctx, score))
}

func export(t *testing.T, s store.Store) []byte {
	service := NewService(s)
	service.Now = fixed

	var buffer bytes.Buffer
	require.NoError(t, service.Export(context.Background(), &buffer))
	return buffer.Bytes()
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	source := store.NewMemoryStore()
	populate(t, source)
	data := export(t, source)

	assert.Contains(t, string(data), "\n  \"version\": 1,")
	assert.Contains(t, string(data), `"exportedAt": "2024-03-14T09:30:00Z"`)

	target := store.NewMemoryStore()
	require.NoError(t, target.AddPlayer(ctx, &models.Player{ID: "stale", Name: "Stale"}))

	result, err := NewService(target).Import(ctx, data)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Imported 2 players, 1 games, 1 sessions.", result.Message)

	assert.Equal(t, string(data), string(export(t, target)))

	players, err := target.Players(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "a", players[0].ID)

	score, err := target.ScoreForSession(ctx, "s1")
	require.NoError(t, err)
	rounds, ok := score.(*models.RoundBasedScore)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, rounds.FinalTotals.Keys())
}

func TestEmptyExport(t *testing.T) {
	data := export(t, store.NewMemoryStore())
	assert.Contains(t, string(data), `"players": [],`)
	assert.Contains(t, string(data), `"scores": []`)
}

func TestRejected(t *testing.T) {
	ctx := context.Background()

	for name, test := range map[string]struct {
		data    string
		message string
	}{
		"garbage":       {`{not json`, "Failed to parse backup file."},
		"wrong version": {`{"version":2,"players":[],"games":[],"sessions":[],"scores":[]}`, "Invalid backup file format."},
		"no version":    {`{"players":[],"games":[],"sessions":[],"scores":[]}`, "Invalid backup file format."},
		"null players":  {`{"version":1,"players":null,"games":[],"sessions":[],"scores":[]}`, "Invalid backup file format."},
		"no scores":     {`{"version":1,"players":[],"games":[],"sessions":[]}`, "Invalid backup file format."},
		"bad score":     {`{"version":1,"players":[],"games":[],"sessions":[],"scores":[{"type":"golf"}]}`, "Failed to parse backup file."},
	} {
		t.Run(name, func(t *testing.T) {
			s := store.NewMemoryStore()
			populate(t, s)
			before := export(t, s)

			result, err := NewService(s).Import(ctx, []byte(test.data))
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, test.message, result.Message)

			assert.Equal(t, string(before), string(export(t, s)))
		})
	}
}

func TestImportStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	populate(t, s)
	before := export(t, s)

	data := `{"version":1,"players":[` +
		`{"id":"x","name":"Xan","avatarEmoji":"","avatarColor":"","createdAt":"2024-03-10T20:00:00Z"},` +
		`{"id":"x","name":"Xia","avatarEmoji":"","avatarColor":"","createdAt":"2024-03-10T20:00:00Z"}` +
		`],"games":[],"sessions":[],"scores":[]}`

	result, err := NewService(s).Import(ctx, []byte(data))
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.False(t, result.Success)

	assert.Equal(t, string(before), string(export(t, s)))
}

func TestFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	source := store.NewMemoryStore()
	populate(t, source)
	service := NewService(source)
	service.Now = fixed

	for _, name := range []string{"plain.json", "packed.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, service.WriteFile(ctx, path))

			target := store.NewMemoryStore()
			result, err := NewService(target).ReadFile(ctx, path)
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, string(export(t, source)), string(export(t, target)))
		})
	}

	_, err := service.ReadFile(ctx, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDefaultFilename(t *testing.T) {
	assert.Equal(t, "tally-backup-2024-03-14.json", DefaultFilename(exportedAt))
}
