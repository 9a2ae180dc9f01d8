package scorers

import (
	"context"
	"testing"
	"time"

	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/ratings"
	"github.com/cfoust/tally/pkg/session"
	"github.com/cfoust/tally/pkg/store"

	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env Env
	s   *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	s := store.NewMemoryStore()
	lifecycle := session.NewLifecycle(s)
	clock := time.Date(2024, 2, 1, 20, 0, 0, 0, time.UTC)
	lifecycle.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	tracker := ratings.NewTracker(s, ratings.NewMemoryCache(time.Hour))
	t.Cleanup(tracker.Close)

	return &fixture{
		env: Env{
			Store:     s,
			Lifecycle: lifecycle,
			Ratings:   tracker,
		},
		s: s,
	}
}

func (f *fixture) game(t *testing.T, type_ models.ScoringType, config models.GameConfig) string {
	game := models.Game{Name: string(type_), ScoringType: type_, Config: config}
	require.NoError(t, f.s.AddGame(context.Background(), &game))
	return game.ID
}

func (f *fixture) start(t *testing.T, gameID string, players ...string) string {
	started, err := f.env.Lifecycle.Start(context.Background(), gameID, players)
	require.NoError(t, err)
	return started.ID
}

func (f *fixture) status(t *testing.T, sessionID string) models.SessionStatus {
	found, err := f.s.Session(context.Background(), sessionID)
	require.NoError(t, err)
	return found.Status
}

func some(t *testing.T, value opt.Option[string]) string {
	require.False(t, opt.IsNone(value))
	return value.Value
}

func TestRaceFinishesAtTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeRace, models.GameConfig{TargetScore: models.IntPtr(7)})
	sessionID := f.start(t, gameID, "A", "B")

	race, err := NewRace(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 7, race.Target())

	won, err := race.RecordRound(ctx, "A", 3)
	require.NoError(t, err)
	assert.True(t, opt.IsNone(won))

	won, err = race.RecordRound(ctx, "B", 2)
	require.NoError(t, err)
	assert.True(t, opt.IsNone(won))
	assert.False(t, race.Finished())

	won, err = race.RecordRound(ctx, "A", 4)
	require.NoError(t, err)
	assert.Equal(t, "A", some(t, won))
	assert.True(t, race.Finished())
	assert.Equal(t, models.SessionCompleted, f.status(t, sessionID))

	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.RaceScore)
	assert.Equal(t, "A", score.WinnerID)
	assert.True(t, score.Scores.Equal(models.NewTally(
		models.TallyEntry{PlayerID: "A", Value: 7},
		models.TallyEntry{PlayerID: "B", Value: 2},
	)))

	_, err = race.RecordRound(ctx, "B", 1)
	assert.ErrorIs(t, err, ErrFinished)
	assert.ErrorIs(t, race.UndoLastRound(ctx), ErrFinished)
}

func TestRaceValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeRace, models.GameConfig{})
	sessionID := f.start(t, gameID, "A", "B")

	race, err := NewRace(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRaceTarget, race.Target())

	// Nothing to undo
	require.NoError(t, race.UndoLastRound(ctx))
	assert.Empty(t, race.Rounds())

	_, err = race.RecordRound(ctx, "A", 0)
	assert.ErrorIs(t, err, ErrInvalidPoints)

	_, err = race.RecordRound(ctx, "Z", 1)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	assert.False(t, race.Ready())
	assert.ErrorIs(t, race.Complete(ctx), ErrNotReady)

	_, err = NewRoundBased(ctx, f.env, sessionID)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestRaceTotalsFollowTheRoundLog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeRace, models.GameConfig{TargetScore: models.IntPtr(100)})
	players := []string{"A", "B", "C"}
	sessionID := f.start(t, gameID, players...)

	race, err := NewRace(ctx, f.env, sessionID)
	require.NoError(t, err)

	check := func() {
		score := race.Score().(*models.RaceScore)
		assert.True(t, score.Replay(players).Equal(race.Totals()))
	}

	steps := []struct {
		winner string
		points int
		undo   bool
	}{
		{"A", 3, false},
		{"B", 2, false},
		{"", 0, true},
		{"C", 5, false},
		{"A", 1, false},
		{"", 0, true},
		{"", 0, true},
		{"B", 4, false},
	}

	for _, step := range steps {
		if step.undo {
			require.NoError(t, race.UndoLastRound(ctx))
		} else {
			_, err := race.RecordRound(ctx, step.winner, step.points)
			require.NoError(t, err)
		}
		check()
	}

	assert.Equal(t, []string{"A", "B", "C"}, race.Totals().Keys())
	assert.Equal(t, 3, race.Totals().Value("A"))
	assert.Equal(t, 4, race.Totals().Value("B"))
	assert.Equal(t, 0, race.Totals().Value("C"))

	// Resuming picks up the saved round log
	resumed, err := NewRace(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.True(t, resumed.Totals().Equal(race.Totals()))
	assert.Len(t, resumed.Rounds(), 2)
}

func TestRoundBasedAutoFinish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeRoundBased, models.GameConfig{TargetScore: models.IntPtr(10)})
	sessionID := f.start(t, gameID, "A", "B", "C")

	rounds, err := NewRoundBased(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.False(t, rounds.Ready())

	crossed, err := rounds.RecordRound(ctx, map[string]int{"A": 4, "B": 6})
	require.NoError(t, err)
	assert.True(t, opt.IsNone(crossed))
	assert.Equal(t, 0, rounds.Totals().Value("C"))

	_, err = rounds.RecordRound(ctx, map[string]int{"Z": 1})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.Len(t, rounds.Rounds(), 1)

	// Both cross, the first in session order is reported
	crossed, err = rounds.RecordRound(ctx, map[string]int{"A": 6, "B": 9})
	require.NoError(t, err)
	assert.Equal(t, "A", some(t, crossed))
	assert.True(t, rounds.Finished())
	assert.Equal(t, models.SessionCompleted, f.status(t, sessionID))

	// The recorded result still resolves from the totals
	assert.Equal(t, "B", some(t, rounds.Leader()))
	assert.Equal(t, 15, rounds.Totals().Value("B"))
}

func TestRoundBasedLowestWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeRoundBased, models.GameConfig{
		TargetScore: models.IntPtr(10),
		LowestWins:  true,
	})
	sessionID := f.start(t, gameID, "A", "B")

	rounds, err := NewRoundBased(ctx, f.env, sessionID)
	require.NoError(t, err)

	_, err = rounds.Finish(ctx)
	assert.ErrorIs(t, err, ErrNotReady)

	players := []string{"A", "B"}
	for _, round := range []map[string]int{
		{"A": 20, "B": 5},
		{"A": 1, "B": 30},
		{"A": 7, "B": 2},
	} {
		crossed, err := rounds.RecordRound(ctx, round)
		require.NoError(t, err)
		assert.True(t, opt.IsNone(crossed))

		score := rounds.Score().(*models.RoundBasedScore)
		assert.True(t, score.Replay(players).Equal(score.FinalTotals))
	}

	require.NoError(t, rounds.UndoLastRound(ctx))
	assert.Equal(t, 21, rounds.Totals().Value("A"))
	assert.Equal(t, 35, rounds.Totals().Value("B"))

	winner, err := rounds.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", some(t, winner))
	assert.Equal(t, models.SessionCompleted, f.status(t, sessionID))
}

func TestWinLossWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeWinLoss, models.GameConfig{TrackLastPlace: true})
	sessionID := f.start(t, gameID, "A", "B", "C")

	wizard, err := NewWinLoss(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.Equal(t, StepWinner, wizard.Step())
	assert.ErrorIs(t, wizard.Confirm(ctx), ErrNotReady)
	assert.ErrorIs(t, wizard.SkipLoser(ctx), ErrNotReady)

	require.NoError(t, wizard.SelectWinner(ctx, "B"))
	assert.Equal(t, StepLoser, wizard.Step())
	assert.False(t, wizard.Ready())

	assert.Error(t, wizard.SelectLoser(ctx, "B"))
	require.NoError(t, wizard.SelectLoser(ctx, "A"))
	assert.Equal(t, StepConfirm, wizard.Step())

	require.NoError(t, wizard.Confirm(ctx))
	assert.Equal(t, models.SessionCompleted, f.status(t, sessionID))

	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.WinLossScore)
	assert.Equal(t, "B", score.WinnerID)
	assert.Equal(t, "A", score.LoserID)
	assert.Equal(t, []string{"B", "A", "C"}, score.Placements)
}

func TestWinLossWithoutLastPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeWinLoss, models.GameConfig{})
	sessionID := f.start(t, gameID, "A", "B")

	wizard, err := NewWinLoss(ctx, f.env, sessionID)
	require.NoError(t, err)

	require.NoError(t, wizard.SelectWinner(ctx, "A"))
	assert.Equal(t, StepConfirm, wizard.Step())
	assert.Error(t, wizard.SelectLoser(ctx, "B"))

	require.NoError(t, wizard.Reset(ctx))
	assert.Equal(t, StepWinner, wizard.Step())

	require.NoError(t, wizard.SelectWinner(ctx, "B"))
	require.NoError(t, wizard.Confirm(ctx))

	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.WinLossScore)
	assert.Empty(t, score.LoserID)
	assert.Equal(t, []string{"B", "A"}, score.Placements)
}

func TestFinalScoreEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeFinalScore, models.GameConfig{})
	sessionID := f.start(t, gameID, "A", "B", "C")

	final, err := NewFinalScore(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.False(t, final.Ready())

	require.NoError(t, final.SetEntry(ctx, "A", "87"))
	require.NoError(t, final.SetEntry(ctx, "B", "abc"))
	require.NoError(t, final.SetEntry(ctx, "C", "  "))
	assert.False(t, final.Ready())
	assert.Equal(t, []string{"B", "C"}, final.Missing())
	assert.ErrorIs(t, final.Submit(ctx), ErrNotReady)
	assert.Equal(t, models.SessionInProgress, f.status(t, sessionID))

	// Too large to store, so it blocks submission like any bad entry
	require.NoError(t, final.SetEntry(ctx, "B", "1e20"))
	require.NoError(t, final.SetEntry(ctx, "C", "-3000000000"))
	assert.Equal(t, []string{"B", "C"}, final.Missing())
	assert.ErrorIs(t, final.Submit(ctx), ErrNotReady)

	require.NoError(t, final.SetEntry(ctx, "B", "92.8"))
	require.NoError(t, final.SetEntry(ctx, "C", "87"))
	assert.True(t, final.Ready())

	preview := final.Preview()
	require.Len(t, preview, 3)
	assert.Equal(t, models.TallyEntry{PlayerID: "B", Value: 92}, preview[0])
	assert.Equal(t, "A", preview[1].PlayerID)
	assert.Equal(t, "C", preview[2].PlayerID)

	assert.ErrorIs(t, final.SetEntry(ctx, "Z", "1"), ErrUnknownPlayer)

	require.NoError(t, final.Submit(ctx))
	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.FinalScoreResult)
	assert.Equal(t, []string{"A", "B", "C"}, score.Scores.Keys())
	assert.Equal(t, 92, score.Scores.Value("B"))
}

func TestEloRatings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeELO, models.GameConfig{})

	_, err := NewElo(ctx, f.env, f.start(t, gameID, "A", "B", "C"))
	assert.ErrorIs(t, err, ErrPlayerCount)

	sessionID := f.start(t, gameID, "A", "B")
	elo, err := NewElo(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.Equal(t, [2]int{1200, 1200}, elo.Ratings())
	assert.False(t, elo.Ready())

	_, ok := elo.Preview()
	assert.False(t, ok)

	assert.ErrorIs(t, elo.Select(ctx, models.EloDraw), ErrDrawNotAllowed)

	require.NoError(t, elo.Select(ctx, models.EloPlayer1Win))
	preview, ok := elo.Preview()
	require.True(t, ok)
	assert.Equal(t, 1216, preview["A"].RatingAfter)
	assert.Equal(t, 1184, preview["B"].RatingAfter)

	require.NoError(t, elo.Submit(ctx))
	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.EloScore)
	assert.Equal(t, preview, score.PlayerResults)
	assert.Equal(t, models.OutcomeWin, score.PlayerResults["A"].Outcome)

	// The next game starts from the new ratings
	rematch, err := NewElo(ctx, f.env, f.start(t, gameID, "B", "A"))
	require.NoError(t, err)
	assert.Equal(t, [2]int{1184, 1216}, rematch.Ratings())
}

func TestEloDraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeELO, models.GameConfig{AllowDraw: true})
	sessionID := f.start(t, gameID, "A", "B")

	elo, err := NewElo(ctx, f.env, sessionID)
	require.NoError(t, err)
	require.NoError(t, elo.Select(ctx, models.EloDraw))
	require.NoError(t, elo.Complete(ctx))

	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.EloScore)
	assert.Equal(t, models.OutcomeDraw, score.PlayerResults["B"].Outcome)
	assert.Equal(t, 1200, score.PlayerResults["B"].RatingAfter)
}

func TestCooperative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gameID := f.game(t, models.ScoringTypeCooperative, models.GameConfig{})
	sessionID := f.start(t, gameID, "A", "B")

	coop, err := NewCooperative(ctx, f.env, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, coop.Level())

	require.NoError(t, coop.Decrement(ctx))
	assert.Equal(t, 1, coop.Level())

	require.NoError(t, coop.Increment(ctx))
	require.NoError(t, coop.Increment(ctx))
	assert.Equal(t, 3, coop.Level())

	require.NoError(t, coop.SetLevel(ctx, -4))
	assert.Equal(t, 1, coop.Level())
	require.NoError(t, coop.SetLevel(ctx, 8))

	assert.False(t, coop.Ready())
	assert.ErrorIs(t, coop.Submit(ctx), ErrNotReady)

	require.NoError(t, coop.SetWon(ctx, false))
	assert.True(t, coop.Ready())
	require.NoError(t, coop.Submit(ctx))

	stored, err := f.s.ScoreForSession(ctx, sessionID)
	require.NoError(t, err)
	score := stored.(*models.CooperativeScore)
	assert.Equal(t, 8, score.LevelReached)
	assert.False(t, score.Won)
}

func TestNewPicksScorerByType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		type_ models.ScoringType
		check func(Scorer) bool
	}{
		{models.ScoringTypeRace, func(s Scorer) bool { _, ok := s.(*Race); return ok }},
		{models.ScoringTypeRoundBased, func(s Scorer) bool { _, ok := s.(*RoundBased); return ok }},
		{models.ScoringTypeWinLoss, func(s Scorer) bool { _, ok := s.(*WinLoss); return ok }},
		{models.ScoringTypeFinalScore, func(s Scorer) bool { _, ok := s.(*FinalScore); return ok }},
		{models.ScoringTypeELO, func(s Scorer) bool { _, ok := s.(*Elo); return ok }},
		{models.ScoringTypeCooperative, func(s Scorer) bool { _, ok := s.(*Cooperative); return ok }},
	}

	for _, c := range cases {
		gameID := f.game(t, c.type_, models.GameConfig{})
		scorer, err := New(ctx, f.env, f.start(t, gameID, "A", "B"))
		require.NoError(t, err)
		assert.True(t, c.check(scorer), c.type_)
		assert.Equal(t, c.type_, scorer.Score().Type())
	}
}
