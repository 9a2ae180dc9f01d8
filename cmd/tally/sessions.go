package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cfoust/tally/pkg/mmr"
	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/scorers"
	"github.com/cfoust/tally/pkg/store"
	"github.com/cfoust/tally/pkg/winner"

	opt "github.com/repeale/fp-go/option"
)

type SessionStartCmd struct {
	Game    string   `arg:"" help:"Game id or name."`
	Players []string `arg:"" help:"Player ids or names, in seating order."`
}

func (c *SessionStartCmd) Run(app *App) error {
	game, err := app.game(c.Game)
	if err != nil {
		return err
	}

	playerIDs, err := app.players(c.Players)
	if err != nil {
		return err
	}

	count := len(playerIDs)
	if count < game.Config.MinPlayers || count > game.Config.MaxPlayers {
		return fmt.Errorf(
			"%s is played by %d to %d players, not %d",
			game.Name,
			game.Config.MinPlayers,
			game.Config.MaxPlayers,
			count,
		)
	}

	started, err := app.env.Lifecycle.Start(app.ctx, game.ID, playerIDs)
	if err != nil {
		return err
	}

	return app.print(started, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "started %s %s (%s)\n", game.Icon, game.Name, started.ID)
		return err
	})
}

type SessionListCmd struct {
	Game   string `help:"Only sessions of this game."`
	Player string `help:"Only sessions with this player."`
	Status string `xor:"status" help:"Only sessions with this status: in_progress, completed or abandoned."`
	Active bool   `xor:"status" help:"Only sessions still in progress."`
}

type sessionRow struct {
	Session models.GameSession `json:"session"`
	Game    string             `json:"game"`
	Winner  string             `json:"winner,omitempty"`
}

func (c *SessionListCmd) Run(app *App) error {
	filter := store.SessionFilter{Status: models.SessionStatus(c.Status)}
	if c.Game != "" {
		game, err := app.game(c.Game)
		if err != nil {
			return err
		}
		filter.GameID = game.ID
	}
	if c.Player != "" {
		player, err := app.player(c.Player)
		if err != nil {
			return err
		}
		filter.PlayerID = player.ID
	}

	var sessions []models.GameSession
	if c.Active {
		active, err := app.env.Lifecycle.Active(app.ctx)
		if err != nil {
			return err
		}
		for i := range active {
			if filter.Match(&active[i]) {
				sessions = append(sessions, active[i])
			}
		}
	} else {
		found, err := app.store.FindSessions(app.ctx, filter)
		if err != nil {
			return err
		}
		sessions = found
	}

	names, err := app.names()
	if err != nil {
		return err
	}

	rows := make([]sessionRow, 0, len(sessions))
	for _, found := range sessions {
		row := sessionRow{Session: found, Game: found.GameID}

		game, err := app.store.Game(app.ctx, found.GameID)
		if err == nil {
			row.Game = game.Name
			score, err := app.store.ScoreForSession(app.ctx, found.ID)
			if err == nil && found.Status == models.SessionCompleted {
				row.Winner = winner.ID(score, game)
			}
		}
		rows = append(rows, row)
	}

	return app.print(rows, func(w io.Writer) error {
		lines := [][]string{{"ID", "GAME", "STATUS", "PLAYED", "PLAYERS", "WINNER"}}
		for _, row := range rows {
			players := make([]string, 0, len(row.Session.PlayerIDs))
			for _, id := range row.Session.PlayerIDs {
				players = append(players, displayName(names, id))
			}

			won := ""
			if row.Winner != "" {
				won = displayName(names, row.Winner)
			}

			lines = append(lines, []string{
				row.Session.ID,
				row.Game,
				string(row.Session.Status),
				row.Session.PlayedAt().Local().Format("2006-01-02 15:04"),
				strings.Join(players, ", "),
				won,
			})
		}
		return table(w, lines)
	})
}

type sessionDetail struct {
	Session models.GameSession `json:"session"`
	Game    models.Game        `json:"game"`
	Score   models.ScoreData   `json:"score,omitempty"`
	Winner  string             `json:"winner,omitempty"`
}

type SessionShowCmd struct {
	Session string `arg:"" help:"Session id."`
}

func describeTally(w io.Writer, names map[string]string, tally models.Tally) {
	for _, entry := range tally.Entries() {
		fmt.Fprintf(w, "  %-16s %d\n", displayName(names, entry.PlayerID), entry.Value)
	}
}

func describeScore(w io.Writer, names map[string]string, score models.ScoreData) {
	switch score := score.(type) {
	case *models.RaceScore:
		fmt.Fprintf(w, "race to %d, %d rounds\n", score.TargetScore, len(score.Rounds))
		describeTally(w, names, score.Scores)
	case *models.RoundBasedScore:
		fmt.Fprintf(w, "%d rounds\n", len(score.Rounds))
		describeTally(w, names, score.FinalTotals)
	case *models.WinLossScore:
		if score.LoserID != "" {
			fmt.Fprintf(w, "last: %s\n", displayName(names, score.LoserID))
		}
	case *models.FinalScoreResult:
		describeTally(w, names, score.Scores)
	case *models.EloScore:
		ids := make([]string, 0, len(score.PlayerResults))
		for id := range score.PlayerResults {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			result := score.PlayerResults[id]
			fmt.Fprintf(
				w,
				"  %-16s %-5s %d -> %s\n",
				displayName(names, id),
				result.Outcome,
				result.RatingBefore,
				mmr.Outcome{
					Delta:  result.RatingAfter - result.RatingBefore,
					Rating: result.RatingAfter,
				},
			)
		}
	case *models.CooperativeScore:
		outcome := "lost"
		if score.Won {
			outcome = "won"
		}
		fmt.Fprintf(w, "level %d, %s\n", score.LevelReached, outcome)
		if score.Notes != "" {
			fmt.Fprintf(w, "%s\n", score.Notes)
		}
	}
}

func (c *SessionShowCmd) Run(app *App) error {
	found, err := app.store.Session(app.ctx, c.Session)
	if err != nil {
		return err
	}

	game, err := app.store.Game(app.ctx, found.GameID)
	if err != nil {
		return err
	}

	detail := sessionDetail{Session: *found, Game: *game}
	score, err := app.store.ScoreForSession(app.ctx, found.ID)
	switch {
	case err == nil:
		detail.Score = score
		if found.Status == models.SessionCompleted {
			detail.Winner = winner.ID(score, game)
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	names, err := app.names()
	if err != nil {
		return err
	}

	return app.print(detail, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s (%s)\n", game.Icon, game.Name, found.Status)
		fmt.Fprintf(w, "started %s\n", found.StartedAt.Local().Format(time.RFC1123))
		if found.CompletedAt != nil {
			fmt.Fprintf(w, "ended   %s\n", found.CompletedAt.Local().Format(time.RFC1123))
		}

		players := make([]string, 0, len(found.PlayerIDs))
		for _, id := range found.PlayerIDs {
			players = append(players, displayName(names, id))
		}
		fmt.Fprintf(w, "players %s\n", strings.Join(players, ", "))

		if detail.Score != nil {
			describeScore(w, names, detail.Score)
		}
		if detail.Winner != "" {
			fmt.Fprintf(w, "winner  %s\n", displayName(names, detail.Winner))
		}
		if found.Notes != "" {
			fmt.Fprintf(w, "notes   %s\n", found.Notes)
		}
		return nil
	})
}

type SessionAbandonCmd struct {
	Session string `arg:"" help:"Session id."`
}

func (c *SessionAbandonCmd) Run(app *App) error {
	return app.env.Lifecycle.Abandon(app.ctx, c.Session)
}

type SessionNotesCmd struct {
	Session string `arg:"" help:"Session id."`
	Notes   string `arg:"" help:"Notes, replacing any already there."`
}

func (c *SessionNotesCmd) Run(app *App) error {
	return app.env.Lifecycle.SetNotes(app.ctx, c.Session, c.Notes)
}

// assignments parses PLAYER=VALUE arguments.
func (a *App) assignments(args []string) ([]string, []string, error) {
	ids := make([]string, 0, len(args))
	values := make([]string, 0, len(args))
	for _, arg := range args {
		ref, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("expected PLAYER=VALUE, got %q", arg)
		}

		player, err := a.player(ref)
		if err != nil {
			return nil, nil, err
		}

		ids = append(ids, player.ID)
		values = append(values, value)
	}
	return ids, values, nil
}

func (a *App) announce(w io.Writer, won opt.Option[string]) error {
	if opt.IsNone(won) {
		return nil
	}

	names, err := a.names()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s wins\n", displayName(names, won.Value))
	return err
}

func (a *App) showScorer(scorer scorers.Scorer, won opt.Option[string]) error {
	names, err := a.names()
	if err != nil {
		return err
	}

	score := scorer.Score()
	return a.print(score, func(w io.Writer) error {
		describeScore(w, names, score)
		return a.announce(w, won)
	})
}

type ScoreRaceCmd struct {
	Session string `arg:"" help:"Session id."`
	Winner  string `arg:"" help:"Player who won the round."`
	Points  int    `default:"1" help:"Points the round was worth."`
}

func (c *ScoreRaceCmd) Run(app *App) error {
	race, err := scorers.NewRace(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	player, err := app.player(c.Winner)
	if err != nil {
		return err
	}

	won, err := race.RecordRound(app.ctx, player.ID, c.Points)
	if err != nil {
		return err
	}

	return app.showScorer(race, won)
}

type ScoreRoundCmd struct {
	Session string   `arg:"" help:"Session id."`
	Scores  []string `arg:"" help:"Points per player, as PLAYER=POINTS."`
}

func (c *ScoreRoundCmd) Run(app *App) error {
	rounds, err := scorers.NewRoundBased(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	ids, values, err := app.assignments(c.Scores)
	if err != nil {
		return err
	}

	scores := make(map[string]int, len(ids))
	for i, id := range ids {
		points, err := strconv.Atoi(values[i])
		if err != nil {
			return fmt.Errorf("%w: %q", scorers.ErrInvalidPoints, values[i])
		}
		scores[id] = points
	}

	won, err := rounds.RecordRound(app.ctx, scores)
	if err != nil {
		return err
	}

	return app.showScorer(rounds, won)
}

type ScoreUndoCmd struct {
	Session string `arg:"" help:"Session id."`
}

func (c *ScoreUndoCmd) Run(app *App) error {
	scorer, err := scorers.New(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	switch scorer := scorer.(type) {
	case *scorers.Race:
		err = scorer.UndoLastRound(app.ctx)
	case *scorers.RoundBased:
		err = scorer.UndoLastRound(app.ctx)
	default:
		return fmt.Errorf("%s is not scored in rounds", scorer.Game().Name)
	}
	if err != nil {
		return err
	}

	return app.showScorer(scorer, opt.None[string]())
}

type ScoreFinishCmd struct {
	Session string `arg:"" help:"Session id."`
}

func (c *ScoreFinishCmd) Run(app *App) error {
	rounds, err := scorers.NewRoundBased(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	won, err := rounds.Finish(app.ctx)
	if err != nil {
		return err
	}

	return app.showScorer(rounds, won)
}

type ScoreWinLossCmd struct {
	Session string `arg:"" help:"Session id."`
	Winner  string `arg:"" help:"Player who won."`
	Loser   string `help:"Player who came last, for games that track it."`
}

func (c *ScoreWinLossCmd) Run(app *App) error {
	wizard, err := scorers.NewWinLoss(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	won, err := app.player(c.Winner)
	if err != nil {
		return err
	}

	if err := wizard.SelectWinner(app.ctx, won.ID); err != nil {
		return err
	}

	if wizard.Step() == scorers.StepLoser {
		if c.Loser == "" {
			err = wizard.SkipLoser(app.ctx)
		} else {
			var lost *models.Player
			lost, err = app.player(c.Loser)
			if err == nil {
				err = wizard.SelectLoser(app.ctx, lost.ID)
			}
		}
		if err != nil {
			return err
		}
	} else if c.Loser != "" {
		return fmt.Errorf("%s does not track last place", wizard.Game().Name)
	}

	if err := wizard.Confirm(app.ctx); err != nil {
		return err
	}

	return app.showScorer(wizard, opt.Some(won.ID))
}

type ScoreFinalCmd struct {
	Session string   `arg:"" help:"Session id."`
	Scores  []string `arg:"" help:"Final score per player, as PLAYER=SCORE."`
	Draft   bool     `help:"Only save the entries, even when every player has one."`
}

func (c *ScoreFinalCmd) Run(app *App) error {
	final, err := scorers.NewFinalScore(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	ids, values, err := app.assignments(c.Scores)
	if err != nil {
		return err
	}

	for i, id := range ids {
		if err := final.SetEntry(app.ctx, id, values[i]); err != nil {
			return err
		}
	}

	if c.Draft || !final.Ready() {
		names, err := app.names()
		if err != nil {
			return err
		}

		missing := make([]string, 0)
		for _, id := range final.Missing() {
			missing = append(missing, displayName(names, id))
		}

		return app.print(final.Score(), func(w io.Writer) error {
			for _, entry := range final.Preview() {
				fmt.Fprintf(w, "  %-16s %d\n", displayName(names, entry.PlayerID), entry.Value)
			}
			if len(missing) > 0 {
				fmt.Fprintf(w, "waiting on %s\n", strings.Join(missing, ", "))
			}
			return nil
		})
	}

	if err := final.Submit(app.ctx); err != nil {
		return err
	}

	game := final.Game()
	return app.showScorer(final, winner.Resolve(final.Score(), &game))
}

type ScoreEloCmd struct {
	Session string `arg:"" help:"Session id."`
	Result  string `arg:"" help:"The winning player, or \"draw\"."`
}

func (c *ScoreEloCmd) Run(app *App) error {
	rated, err := scorers.NewElo(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	result := models.EloDraw
	if !strings.EqualFold(c.Result, "draw") {
		won, err := app.player(c.Result)
		if err != nil {
			return err
		}

		players := rated.Players()
		switch won.ID {
		case players[0]:
			result = models.EloPlayer1Win
		case players[1]:
			result = models.EloPlayer2Win
		default:
			return fmt.Errorf("%w: %s", scorers.ErrUnknownPlayer, won.Name)
		}
	}

	if err := rated.Select(app.ctx, result); err != nil {
		return err
	}
	if err := rated.Submit(app.ctx); err != nil {
		return err
	}

	game := rated.Game()
	return app.showScorer(rated, winner.Resolve(rated.Score(), &game))
}

type ScoreCoopCmd struct {
	Session string `arg:"" help:"Session id."`
	Level   int    `required:"" help:"Level or round the team reached."`
	Won     bool   `xor:"outcome" help:"The team won."`
	Lost    bool   `xor:"outcome" help:"The team lost."`
	Notes   string `help:"Notes about the game."`
}

func (c *ScoreCoopCmd) Run(app *App) error {
	if !c.Won && !c.Lost {
		return fmt.Errorf("pass --won or --lost")
	}

	coop, err := scorers.NewCooperative(app.ctx, app.env, c.Session)
	if err != nil {
		return err
	}

	if err := coop.SetLevel(app.ctx, c.Level); err != nil {
		return err
	}
	if c.Notes != "" {
		if err := coop.SetNotes(app.ctx, c.Notes); err != nil {
			return err
		}
	}
	if err := coop.SetWon(app.ctx, c.Won); err != nil {
		return err
	}
	if err := coop.Submit(app.ctx); err != nil {
		return err
	}

	return app.showScorer(coop, opt.None[string]())
}
