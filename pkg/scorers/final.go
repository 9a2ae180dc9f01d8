package scorers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cfoust/tally/pkg/models"
)

// FinalScore collects one final number per player.
type FinalScore struct {
	*base
	entries map[string]string
	score   *models.FinalScoreResult
}

func NewFinalScore(ctx context.Context, env Env, sessionID string) (*FinalScore, error) {
	b, existing, err := load(ctx, env, sessionID, models.ScoringTypeFinalScore)
	if err != nil {
		return nil, err
	}

	scorer := &FinalScore{
		base:    b,
		entries: make(map[string]string),
	}

	score, _ := existing.(*models.FinalScoreResult)
	if score == nil {
		score = &models.FinalScoreResult{
			ScoreBase: models.ScoreBase{SessionID: sessionID},
		}
	}
	scorer.score = score

	for _, entry := range score.Scores.Entries() {
		if b.session.Has(entry.PlayerID) {
			scorer.entries[entry.PlayerID] = strconv.Itoa(entry.Value)
		}
	}

	return scorer, nil
}

// parseEntry reads a score as typed by a user. Fractions are truncated and
// anything outside the int32 range is refused.
func parseEntry(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}

	value = math.Trunc(value)
	if value > math.MaxInt32 || value < math.MinInt32 {
		return 0, false
	}

	return int(value), true
}

func (f *FinalScore) Entry(playerID string) string {
	return f.entries[playerID]
}

// SetEntry stores the raw text entered for a player. Entries that do not
// parse are kept but block submission.
func (f *FinalScore) SetEntry(ctx context.Context, playerID string, raw string) error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	if err := f.checkPlayer(playerID); err != nil {
		return err
	}

	f.entries[playerID] = raw
	f.score.Scores = f.tally()
	return f.persist(ctx, f.score)
}

// tally holds the entries that parse, in session order.
func (f *FinalScore) tally() models.Tally {
	tally := models.Tally{}
	for _, playerID := range f.session.PlayerIDs {
		if value, ok := parseEntry(f.entries[playerID]); ok {
			tally.Set(playerID, value)
		}
	}
	return tally
}

// Ready reports whether every player has a numeric entry.
func (f *FinalScore) Ready() bool {
	if f.Finished() {
		return false
	}

	for _, playerID := range f.session.PlayerIDs {
		if _, ok := parseEntry(f.entries[playerID]); !ok {
			return false
		}
	}
	return true
}

// Missing lists the players whose entry is empty or not a number.
func (f *FinalScore) Missing() []string {
	var missing []string
	for _, playerID := range f.session.PlayerIDs {
		if _, ok := parseEntry(f.entries[playerID]); !ok {
			missing = append(missing, playerID)
		}
	}
	return missing
}

// Preview ranks the parsed entries, highest first.
func (f *FinalScore) Preview() []models.TallyEntry {
	entries := f.tally().Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	return entries
}

func (f *FinalScore) Score() models.ScoreData {
	return copyScore(f.score)
}

func (f *FinalScore) Submit(ctx context.Context) error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	if !f.Ready() {
		return fmt.Errorf("%w: missing scores for %s", ErrNotReady, strings.Join(f.Missing(), ", "))
	}

	f.score.Scores = f.tally()
	return f.complete(ctx, f.score)
}

func (f *FinalScore) Complete(ctx context.Context) error {
	return f.Submit(ctx)
}
