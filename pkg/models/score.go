package models

import (
	"encoding/json"
	"fmt"
)

// ScoreData is the scoring-type-specific record captured for one session.
// The concrete types are *RaceScore, *RoundBasedScore, *WinLossScore,
// *FinalScoreResult, *EloScore and *CooperativeScore; code that needs to
// tell them apart should use a type switch.
type ScoreData interface {
	Type() ScoringType
	Base() *ScoreBase
}

// ScoreBase holds the fields every score record carries.
type ScoreBase struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
}

func (b *ScoreBase) Base() *ScoreBase { return b }

type RaceRound struct {
	RoundNumber int    `json:"roundNumber"`
	WinnerID    string `json:"winnerId"`
	// Points earned this round, e.g. 1 normal, 2 gammon, 3 backgammon
	Points int `json:"points"`
}

type RaceScore struct {
	ScoreBase
	Rounds []RaceRound `json:"rounds"`
	// Cumulative points per player
	Scores Tally `json:"scores"`
	// Set once someone reaches the target
	WinnerID    string `json:"winnerId,omitempty"`
	TargetScore int    `json:"targetScore"`
}

// Replay recomputes the cumulative totals from the round log.
func (s *RaceScore) Replay(playerIDs []string) Tally {
	totals := ZeroTally(playerIDs)
	for _, round := range s.Rounds {
		totals.Add(round.WinnerID, round.Points)
	}
	return totals
}

type ScoringRound struct {
	RoundNumber int   `json:"roundNumber"`
	Scores      Tally `json:"scores"`
}

type RoundBasedScore struct {
	ScoreBase
	Rounds      []ScoringRound `json:"rounds"`
	FinalTotals Tally          `json:"finalTotals"`
}

// Replay recomputes the per-player totals from the round log.
func (s *RoundBasedScore) Replay(playerIDs []string) Tally {
	totals := ZeroTally(playerIDs)
	for _, round := range s.Rounds {
		for _, entry := range round.Scores.Entries() {
			totals.Add(entry.PlayerID, entry.Value)
		}
	}
	return totals
}

type WinLossScore struct {
	ScoreBase
	WinnerID string `json:"winnerId"`
	// Last place, only when the game tracks it
	LoserID string `json:"loserId,omitempty"`
	// Winner first
	Placements []string `json:"placements"`
}

type FinalScoreResult struct {
	ScoreBase
	Scores Tally `json:"scores"`
}

type EloResult string

const (
	EloPlayer1Win EloResult = "player1_win"
	EloPlayer2Win EloResult = "player2_win"
	EloDraw       EloResult = "draw"
)

// ScoreA is the actual score of the first player for this result.
func (r EloResult) ScoreA() float64 {
	switch r {
	case EloPlayer1Win:
		return 1
	case EloDraw:
		return 0.5
	}
	return 0
}

func (r EloResult) Valid() bool {
	return r == EloPlayer1Win || r == EloPlayer2Win || r == EloDraw
}

type EloOutcome string

const (
	OutcomeWin  EloOutcome = "win"
	OutcomeLoss EloOutcome = "loss"
	OutcomeDraw EloOutcome = "draw"
)

type PlayerResult struct {
	Outcome      EloOutcome `json:"outcome"`
	RatingBefore int        `json:"ratingBefore"`
	RatingAfter  int        `json:"ratingAfter"`
}

type EloScore struct {
	ScoreBase
	Result        EloResult               `json:"result"`
	PlayerResults map[string]PlayerResult `json:"playerResults"`
}

type CooperativeScore struct {
	ScoreBase
	LevelReached int `json:"levelReached"`
	// Did the team complete the game?
	Won   bool   `json:"won"`
	Notes string `json:"notes,omitempty"`
}

func (*RaceScore) Type() ScoringType        { return ScoringTypeRace }
func (*RoundBasedScore) Type() ScoringType  { return ScoringTypeRoundBased }
func (*WinLossScore) Type() ScoringType     { return ScoringTypeWinLoss }
func (*FinalScoreResult) Type() ScoringType { return ScoringTypeFinalScore }
func (*EloScore) Type() ScoringType         { return ScoringTypeELO }
func (*CooperativeScore) Type() ScoringType { return ScoringTypeCooperative }

func (s *RaceScore) MarshalJSON() ([]byte, error) {
	type alias RaceScore
	return tagged(s.Type(), (*alias)(s))
}

func (s *RoundBasedScore) MarshalJSON() ([]byte, error) {
	type alias RoundBasedScore
	return tagged(s.Type(), (*alias)(s))
}

func (s *WinLossScore) MarshalJSON() ([]byte, error) {
	type alias WinLossScore
	return tagged(s.Type(), (*alias)(s))
}

func (s *FinalScoreResult) MarshalJSON() ([]byte, error) {
	type alias FinalScoreResult
	return tagged(s.Type(), (*alias)(s))
}

func (s *EloScore) MarshalJSON() ([]byte, error) {
	type alias EloScore
	return tagged(s.Type(), (*alias)(s))
}

func (s *CooperativeScore) MarshalJSON() ([]byte, error) {
	type alias CooperativeScore
	return tagged(s.Type(), (*alias)(s))
}

// tagged encodes value as a JSON object with a leading "type" field.
func tagged(type_ ScoringType, value any) ([]byte, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	tag, err := json.Marshal(type_)
	if err != nil {
		return nil, err
	}

	result := make([]byte, 0, len(body)+len(tag)+9)
	result = append(result, `{"type":`...)
	result = append(result, tag...)
	if len(body) > 2 {
		result = append(result, ',')
	}
	result = append(result, body[1:]...)
	return result, nil
}

// NewScore returns an empty record of the concrete type for a scoring type.
func NewScore(type_ ScoringType) (ScoreData, error) {
	switch type_ {
	case ScoringTypeRace:
		return &RaceScore{}, nil
	case ScoringTypeRoundBased:
		return &RoundBasedScore{}, nil
	case ScoringTypeWinLoss:
		return &WinLossScore{}, nil
	case ScoringTypeFinalScore:
		return &FinalScoreResult{}, nil
	case ScoringTypeELO:
		return &EloScore{}, nil
	case ScoringTypeCooperative:
		return &CooperativeScore{}, nil
	}
	return nil, fmt.Errorf("unknown scoring type %q", type_)
}

// DecodeScore reads a tagged score record.
func DecodeScore(data []byte) (ScoreData, error) {
	var header struct {
		Type ScoringType `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, err
	}

	score, err := NewScore(header.Type)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, score); err != nil {
		return nil, fmt.Errorf("could not decode %s score: %w", header.Type, err)
	}

	return score, nil
}

// ScoreList is a JSON-decodable list of tagged score records.
type ScoreList []ScoreData

func (l *ScoreList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw == nil {
		*l = nil
		return nil
	}

	scores := make(ScoreList, 0, len(raw))
	for i, item := range raw {
		score, err := DecodeScore(item)
		if err != nil {
			return fmt.Errorf("score %d: %w", i, err)
		}
		scores = append(scores, score)
	}

	*l = scores
	return nil
}
