package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cfoust/tally/pkg/config"
	"github.com/cfoust/tally/pkg/version"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Version bool     `help:"Print version information and exit." short:"v"`
	Debug   bool     `help:"Whether to enable debug logging."`
	Config  []string `help:"Configuration files, applied in order." short:"c"`
	Format  string   `help:"Output format." enum:"text,json,yaml" default:"text" short:"f"`

	Player struct {
		Add  PlayerAddCmd  `cmd:"" help:"Add a player."`
		List PlayerListCmd `cmd:"" help:"List players."`
		Edit PlayerEditCmd `cmd:"" help:"Change a player's name or avatar."`
		Rm   PlayerRmCmd   `cmd:"" help:"Delete a player. Their sessions are kept."`
	} `cmd:"" help:"Manage players."`

	Game struct {
		Add  GameAddCmd  `cmd:"" help:"Add a custom game."`
		List GameListCmd `cmd:"" help:"List games."`
		Edit GameEditCmd `cmd:"" help:"Change a custom game's name, icon, category or settings."`
		Fav  GameFavCmd  `cmd:"" help:"Toggle whether a game is a favourite."`
		Rm   GameRmCmd   `cmd:"" help:"Delete a game. Its sessions are kept."`
	} `cmd:"" help:"Manage games."`

	Seed SeedCmd `cmd:"" help:"Add or refresh the built-in games."`

	Session struct {
		Start   SessionStartCmd   `cmd:"" help:"Start a session."`
		List    SessionListCmd    `cmd:"" help:"List sessions."`
		Show    SessionShowCmd    `cmd:"" help:"Show a session and its score."`
		Abandon SessionAbandonCmd `cmd:"" help:"Abandon a session in progress."`
		Notes   SessionNotesCmd   `cmd:"" help:"Set the notes of a session."`
	} `cmd:"" help:"Manage sessions."`

	Score struct {
		Race    ScoreRaceCmd    `cmd:"" help:"Record a round won in a race game."`
		Round   ScoreRoundCmd   `cmd:"" help:"Record one round of points, as PLAYER=POINTS."`
		Undo    ScoreUndoCmd    `cmd:"" help:"Remove the last recorded round."`
		Finish  ScoreFinishCmd  `cmd:"" help:"End a round-based session now."`
		Winloss ScoreWinLossCmd `cmd:"" name:"winloss" help:"Record the winner of a win/loss session."`
		Final   ScoreFinalCmd   `cmd:"" help:"Record final scores, as PLAYER=SCORE."`
		Elo     ScoreEloCmd     `cmd:"" help:"Record the result of a rated game."`
		Coop    ScoreCoopCmd    `cmd:"" help:"Record the result of a cooperative game."`
	} `cmd:"" help:"Record scores."`

	Leaderboard  LeaderboardCmd  `cmd:"" help:"Rank players by win rate."`
	H2h          HeadToHeadCmd   `cmd:"" name:"h2h" help:"Compare two players."`
	Profile      ProfileCmd      `cmd:"" help:"Show a player's statistics."`
	Streaks      StreaksCmd      `cmd:"" help:"Show current and longest win streaks."`
	Rivalries    RivalriesCmd    `cmd:"" help:"Show the most played pairings."`
	Weekly       WeeklyCmd       `cmd:"" help:"Count games played per week."`
	Trend        TrendCmd        `cmd:"" help:"Show a player's rolling win rate."`
	Distribution DistributionCmd `cmd:"" help:"Count sessions per game."`
	Wins         WinsCmd         `cmd:"" help:"Count wins per player for one game."`
	History      HistoryCmd      `cmd:"" help:"List the final scores of a game's sessions."`
	Rating       RatingCmd       `cmd:"" help:"Show a player's rating for a game."`

	Export ExportCmd `cmd:"" help:"Write a backup of everything."`
	Import ImportCmd `cmd:"" help:"Replace everything with the content of a backup."`

	ConfigCmd struct {
	} `cmd:"" name:"config" help:"Write tally's default configuration to standard output."`

	VersionCmd struct {
	} `cmd:"" name:"version" help:"Print version information."`
}

func printVersion() {
	fmt.Printf(
		"tally %s (commit %s)\n",
		version.Version,
		version.GitCommit,
	)
	fmt.Printf(
		"built %s\n",
		version.BuildTime,
	)
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("tally"),
		kong.Description("a score keeper for board and card games"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	if CLI.Version {
		printVersion()
		os.Exit(0)
	}

	switch ctx.Command() {
	case "config":
		os.Stdout.Write(config.DEFAULT)
		return
	case "version":
		printVersion()
		return
	}

	settings, err := config.Process(CLI.Config)
	if err != nil {
		writeError(err)
	}

	if settings.Log.Debug && !CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	app, err := Open(context.Background(), settings, CLI.Format)
	if err != nil {
		writeError(err)
	}

	err = ctx.Run(app)
	app.Close()
	if err != nil {
		writeError(err)
	}
}
