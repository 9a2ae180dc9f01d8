package models

import (
	"fmt"
	"time"
)

// ScoringType is the rule family that decides how a game's outcome is
// recorded and who won.
type ScoringType string

const (
	ScoringTypeRace        ScoringType = "race"
	ScoringTypeRoundBased  ScoringType = "round_based"
	ScoringTypeWinLoss     ScoringType = "win_loss"
	ScoringTypeFinalScore  ScoringType = "final_score"
	ScoringTypeELO         ScoringType = "elo"
	ScoringTypeCooperative ScoringType = "cooperative"
)

var ScoringTypes = []ScoringType{
	ScoringTypeRace,
	ScoringTypeRoundBased,
	ScoringTypeWinLoss,
	ScoringTypeFinalScore,
	ScoringTypeELO,
	ScoringTypeCooperative,
}

func (s ScoringType) Valid() bool {
	for _, type_ := range ScoringTypes {
		if s == type_ {
			return true
		}
	}
	return false
}

type Category string

const (
	CategoryStrategy    Category = "strategy"
	CategoryParty       Category = "party"
	CategoryFamily      Category = "family"
	CategoryCardGames   Category = "card_games"
	CategoryClassic     Category = "classic"
	CategoryCooperative Category = "cooperative"
)

// DefaultRaceTarget is the finish line for race games that do not set one.
const DefaultRaceTarget = 7

// ErrScoringTypeImmutable is returned when an update would change how a
// game's historical scores are interpreted.
var ErrScoringTypeImmutable = fmt.Errorf("scoring type cannot change after creation")

type GameConfig struct {
	MinPlayers int `json:"minPlayers"`
	MaxPlayers int `json:"maxPlayers"`
	// Race: the finish line. Round based: optional auto-finish threshold.
	TargetScore *int `json:"targetScore,omitempty"`
	// Win/loss only
	TrackLastPlace bool `json:"trackLastPlace,omitempty"`
	// ELO only
	AllowDraw bool `json:"allowDraw,omitempty"`
	// Round based only, inverts the comparison
	LowestWins bool `json:"lowestWins,omitempty"`
}

// Target returns the configured target score, if any.
func (c GameConfig) Target() (int, bool) {
	if c.TargetScore == nil {
		return 0, false
	}
	return *c.TargetScore, true
}

// IntPtr is a helper for building configs with a target score.
func IntPtr(value int) *int {
	return &value
}

type Game struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ScoringType ScoringType `json:"scoringType"`
	Icon        string      `json:"icon"`
	Config      GameConfig  `json:"config"`
	IsCustom    bool        `json:"isCustom"`
	IsFavourite bool        `json:"isFavourite,omitempty"`
	Category    Category    `json:"category,omitempty"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
}

// RaceTarget is the target a race scorer plays to.
func (g *Game) RaceTarget() int {
	if target, ok := g.Config.Target(); ok {
		return target
	}
	return DefaultRaceTarget
}

// GamePatch describes a partial update. Nil fields are left alone.
type GamePatch struct {
	Name        *string
	Icon        *string
	Config      *GameConfig
	Category    *Category
	IsFavourite *bool
	// Only accepted when it matches the stored value.
	ScoringType *ScoringType
}

// Apply writes the patch onto the game, refusing scoring type changes.
func (p GamePatch) Apply(game *Game) error {
	if p.ScoringType != nil && *p.ScoringType != game.ScoringType {
		return ErrScoringTypeImmutable
	}
	if p.Name != nil {
		game.Name = *p.Name
	}
	if p.Icon != nil {
		game.Icon = *p.Icon
	}
	if p.Config != nil {
		game.Config = *p.Config
	}
	if p.Category != nil {
		game.Category = *p.Category
	}
	if p.IsFavourite != nil {
		game.IsFavourite = *p.IsFavourite
	}
	return nil
}
