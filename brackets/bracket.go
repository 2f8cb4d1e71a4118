package brackets

// SlotKind describes how one side of a match is occupied.
type SlotKind string

const (
	// SlotEmpty is a slot that has no occupant and never will (unused).
	SlotEmpty SlotKind = "empty"
	// SlotBye is a structurally empty side: the other side advances automatically.
	SlotBye SlotKind = "bye"
	// SlotPending is fed by an earlier match that has not been decided yet.
	SlotPending SlotKind = "pending"
	// SlotResolved holds a concrete participant.
	SlotResolved SlotKind = "resolved"
)

// Slot is one side of a match. The tagged Kind replaces the "TBD"/"BYE"
// string sentinels the frontend renders; viewers derive display text from it.
type Slot struct {
	Kind      SlotKind `json:"kind"`
	TeamID    string   `json:"team_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	FromMatch string   `json:"from_match,omitempty"`
}

func ResolvedSlot(teamID, name string) Slot {
	return Slot{Kind: SlotResolved, TeamID: teamID, Name: name}
}

func ByeSlot() Slot {
	return Slot{Kind: SlotBye}
}

func PendingSlot(fromMatchID string) Slot {
	return Slot{Kind: SlotPending, FromMatch: fromMatchID}
}

// Match is one bracket cell. IDs are assigned at generation time and are
// never reused; a reset followed by a new generation produces all-new IDs.
type Match struct {
	ID       string  `json:"id"`
	Slot1    Slot    `json:"slot1"`
	Slot2    Slot    `json:"slot2"`
	WinnerID *string `json:"winner_id,omitempty"`
}

// Decided reports whether the match already has a recorded winner.
func (m *Match) Decided() bool {
	return m.WinnerID != nil
}

// winnerSlot returns the slot matching the recorded winner, or nil.
func (m *Match) winnerSlot() *Slot {
	if m.WinnerID == nil {
		return nil
	}
	if m.Slot1.Kind == SlotResolved && m.Slot1.TeamID == *m.WinnerID {
		return &m.Slot1
	}
	if m.Slot2.Kind == SlotResolved && m.Slot2.TeamID == *m.WinnerID {
		return &m.Slot2
	}
	return nil
}

type Round struct {
	Matches []Match `json:"matches"`
}

// Bracket is the persisted single-elimination structure. Round 0 is seeded
// directly from the event roster; matches 2m and 2m+1 of round k feed match m
// of round k+1. Round and within-round order are semantically load-bearing.
type Bracket struct {
	Generated bool    `json:"generated"`
	Rounds    []Round `json:"rounds,omitempty"`
}

// FinalMatch returns the single match of the last round, or nil while the
// bracket is not generated.
func (b *Bracket) FinalMatch() *Match {
	if b == nil || !b.Generated || len(b.Rounds) == 0 {
		return nil
	}
	last := b.Rounds[len(b.Rounds)-1].Matches
	if len(last) != 1 {
		return nil
	}
	return &last[0]
}

// Champion returns the winner slot of the final match once it is decided.
func (b *Bracket) Champion() *Slot {
	final := b.FinalMatch()
	if final == nil {
		return nil
	}
	return final.winnerSlot()
}
