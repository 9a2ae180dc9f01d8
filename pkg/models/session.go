package models

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// GameSession is one instance of playing a game with a fixed set of
// participants.
type GameSession struct {
	ID          string        `json:"id"`
	GameID      string        `json:"gameId"`
	PlayerIDs   []string      `json:"playerIds"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

func (s *GameSession) Has(playerID string) bool {
	for _, id := range s.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// PlayedAt is the moment the session counts as played: completion time
// when there is one, otherwise the start.
func (s *GameSession) PlayedAt() time.Time {
	if s.CompletedAt != nil {
		return *s.CompletedAt
	}
	return s.StartedAt
}

type SessionPatch struct {
	Status      *SessionStatus
	CompletedAt *time.Time
	Notes       *string
}

func (p SessionPatch) Apply(session *GameSession) {
	if p.Status != nil {
		session.Status = *p.Status
	}
	if p.CompletedAt != nil {
		completed := *p.CompletedAt
		session.CompletedAt = &completed
	}
	if p.Notes != nil {
		session.Notes = *p.Notes
	}
}
