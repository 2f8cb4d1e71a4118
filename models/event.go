package models

import (
	"time"

	"github.com/bloxevents/event-system/brackets"
)

type EventType string

const (
	TypeGiveaway   EventType = "giveaway"
	TypeTournament EventType = "tournament"
	TypeGeneric    EventType = "event"
)

type EventStatus string

const (
	EventActive EventStatus = "active"
	EventEnded  EventStatus = "ended"
)

// Event owns its roster, bracket and winners. Participants holds user IDs for
// solo events and team IDs for team events, both as strings; slice order is
// load-bearing (it is the roster snapshot order) and must round-trip through
// storage unchanged. Version guards concurrent bracket commits: every commit
// is conditional on the version it read.
type Event struct {
	ID           int               `json:"id"`
	Title        string            `json:"title"`
	Description  *string           `json:"description,omitempty"`
	Type         EventType         `json:"type"`
	Status       EventStatus       `json:"status"`
	HostID       int               `json:"host_id"`
	TeamSize     int               `json:"team_size"`
	Participants []string          `json:"participants"`
	Bracket      *brackets.Bracket `json:"bracket,omitempty"`
	Winners      []string          `json:"winners,omitempty"`
	Version      int               `json:"version"`
	StartsAt     *time.Time        `json:"starts_at,omitempty"`
	EndsAt       *time.Time        `json:"ends_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`

	BannerKey *string `json:"-"`
	BannerURL *string `json:"banner_url,omitempty"`

	// Optional related entities, loaded on demand.
	Host  *User  `json:"host,omitempty"`
	Teams []Team `json:"teams,omitempty"`
}

// Solo reports whether participants are individual users rather than teams.
func (e *Event) Solo() bool {
	return e.TeamSize <= 1
}

// BracketGenerated reports whether the event currently holds a generated bracket.
func (e *Event) BracketGenerated() bool {
	return e.Bracket != nil && e.Bracket.Generated
}
