// Package ratings derives a player's current ELO rating for a game from
// session history. Ratings are never stored on players; lookups can be
// memoized in a Cache, and any write touching a game's sessions or scores
// invalidates that game's entries.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cfoust/tally/pkg/mmr"
	"github.com/cfoust/tally/pkg/models"
	"github.com/cfoust/tally/pkg/store"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
)

// entry is what gets cached for one lookup.
type entry struct {
	Rating int `cbor:"1,keyasint"`
	// Session the rating was read from, empty for the baseline
	SessionID string `cbor:"2,keyasint,omitempty"`
}

// Generation counter bumped by Purge.
const everything = "all"

type Tracker struct {
	store store.Store
	// Cache keys embed the global generation and the game's, both of which
	// live in the cache so that every process sharing it agrees on them.
	cache Cache

	unsubscribe func()
}

// NewTracker returns a tracker reading from s. cache may be nil, in which
// case every lookup scans history.
func NewTracker(s store.Store, cache Cache) *Tracker {
	tracker := &Tracker{
		store: s,
		cache: cache,
	}

	tracker.unsubscribe = s.Changes().Handle(tracker.handleChange)
	return tracker
}

// Close stops listening for store changes.
func (t *Tracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

func (t *Tracker) handleChange(change store.Change) {
	switch change.Table {
	case store.TableSessions, store.TableScores, store.TableGames:
	default:
		return
	}

	ctx := context.Background()
	if change.Op == store.OpReplace || change.GameID == "" {
		t.Purge(ctx)
		return
	}

	t.Invalidate(ctx, change.GameID)
}

func gameGeneration(gameID string) string {
	return "game-" + gameID
}

// Invalidate forgets every cached rating for a game.
func (t *Tracker) Invalidate(ctx context.Context, gameID string) {
	if t.cache == nil {
		return
	}

	if _, err := t.cache.Bump(ctx, gameGeneration(gameID)); err != nil {
		log.Warn().Err(err).Str("game", gameID).Msg("could not invalidate rating cache")
		return
	}

	log.Debug().Str("game", gameID).Msg("rating cache invalidated")
}

// Purge forgets every cached rating.
func (t *Tracker) Purge(ctx context.Context) {
	if t.cache == nil {
		return
	}

	if _, err := t.cache.Bump(ctx, everything); err != nil {
		log.Warn().Err(err).Msg("could not purge rating cache")
		return
	}

	log.Debug().Msg("rating cache purged")
}

func (t *Tracker) key(ctx context.Context, playerID, gameID string) (string, error) {
	all, err := t.cache.Generation(ctx, everything)
	if err != nil {
		return "", err
	}

	game, err := t.cache.Generation(ctx, gameGeneration(gameID))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d-%d-%s-%s", all, game, gameID, playerID), nil
}

// scan finds the rating on the player's most recent completed session of
// the game.
func (t *Tracker) scan(ctx context.Context, playerID, gameID string) (entry, error) {
	sessions, err := t.store.FindSessions(ctx, store.SessionFilter{
		GameID:   gameID,
		PlayerID: playerID,
		Status:   models.SessionCompleted,
	})
	if err != nil {
		return entry{}, fmt.Errorf("could not load sessions: %w", err)
	}

	if len(sessions) == 0 {
		return entry{Rating: mmr.DefaultRating}, nil
	}

	last := sessions[len(sessions)-1]
	score, err := t.store.ScoreForSession(ctx, last.ID)
	if errors.Is(err, store.ErrNotFound) {
		return entry{Rating: mmr.DefaultRating}, nil
	}
	if err != nil {
		return entry{}, fmt.Errorf("could not load score of session %s: %w", last.ID, err)
	}

	elo, ok := score.(*models.EloScore)
	if !ok {
		return entry{Rating: mmr.DefaultRating}, nil
	}

	result, ok := elo.PlayerResults[playerID]
	if !ok {
		return entry{Rating: mmr.DefaultRating}, nil
	}

	return entry{Rating: result.RatingAfter, SessionID: last.ID}, nil
}

// Current is the player's rating for a game: the rating after their most
// recent completed session of it, or mmr.DefaultRating.
func (t *Tracker) Current(ctx context.Context, playerID, gameID string) (int, error) {
	if t.cache == nil {
		found, err := t.scan(ctx, playerID, gameID)
		return found.Rating, err
	}

	key, err := t.key(ctx, playerID, gameID)
	if err != nil {
		// An unreachable cache only costs a scan
		log.Warn().Err(err).Msg("could not read rating generation")
		found, err := t.scan(ctx, playerID, gameID)
		return found.Rating, err
	}

	data, err := t.cache.Get(ctx, key)
	if err == nil {
		var cached entry
		if err := cbor.Unmarshal(data, &cached); err == nil {
			log.Debug().
				Str("player", playerID).
				Str("game", gameID).
				Int("rating", cached.Rating).
				Msg("rating cache hit")
			return cached.Rating, nil
		}
	} else if !errors.Is(err, Missing) {
		log.Warn().Err(err).Msg("could not read rating cache")
	}

	found, err := t.scan(ctx, playerID, gameID)
	if err != nil {
		return 0, err
	}

	data, err = cbor.Marshal(found)
	if err != nil {
		return 0, err
	}

	if err := t.cache.Set(ctx, key, data); err != nil {
		log.Warn().Err(err).Msg("could not write rating cache")
	}

	return found.Rating, nil
}

// Ratings looks up the current rating of several players, in order.
func (t *Tracker) Ratings(ctx context.Context, gameID string, playerIDs []string) ([]int, error) {
	ratings := make([]int, 0, len(playerIDs))
	for _, id := range playerIDs {
		rating, err := t.Current(ctx, id, gameID)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, nil
}

// HistoryEntry is one rated session of a player.
type HistoryEntry struct {
	SessionID    string            `json:"sessionId"`
	PlayedAt     time.Time         `json:"playedAt"`
	Outcome      models.EloOutcome `json:"outcome"`
	RatingBefore int               `json:"ratingBefore"`
	RatingAfter  int               `json:"ratingAfter"`
}

func (h HistoryEntry) Delta() int {
	return h.RatingAfter - h.RatingBefore
}

// History lists the player's rated sessions of a game, oldest first.
func (t *Tracker) History(ctx context.Context, playerID, gameID string) ([]HistoryEntry, error) {
	sessions, err := t.store.FindSessions(ctx, store.SessionFilter{
		GameID:   gameID,
		PlayerID: playerID,
		Status:   models.SessionCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("could not load sessions: %w", err)
	}

	history := make([]HistoryEntry, 0, len(sessions))
	for _, session := range sessions {
		score, err := t.store.ScoreForSession(ctx, session.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not load score of session %s: %w", session.ID, err)
		}

		elo, ok := score.(*models.EloScore)
		if !ok {
			continue
		}

		result, ok := elo.PlayerResults[playerID]
		if !ok {
			continue
		}

		history = append(history, HistoryEntry{
			SessionID:    session.ID,
			PlayedAt:     session.PlayedAt(),
			Outcome:      result.Outcome,
			RatingBefore: result.RatingBefore,
			RatingAfter:  result.RatingAfter,
		})
	}

	return history, nil
}
