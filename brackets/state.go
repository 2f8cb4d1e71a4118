package brackets

import (
	"errors"
	"fmt"
)

var (
	// ErrNotGenerated is returned by operations that require a generated bracket.
	ErrNotGenerated = errors.New("bracket has not been generated")
	// ErrInvalidAdvance is returned for malformed or out-of-order advancement
	// requests. The wrapped message names the violated precondition.
	ErrInvalidAdvance = errors.New("invalid advance")
)

// AdvanceResult reports the outcome of a successful advancement.
type AdvanceResult struct {
	WinnerID   string
	WinnerName string
	// Final is set when the decided match was the bracket final, meaning
	// WinnerID is the overall champion and the owning event should end.
	Final bool
}

// Advance records loserID as the loser of the match at (round, matchIndex)
// and propagates the winner into its slot of the next round's match. The
// bracket is validated in full before any mutation, so a failed call leaves
// it untouched.
//
// A match whose sides are not both resolved cannot be advanced; this is also
// what blocks advancing a successor match ahead of its feeders, since its
// slots are still pending. A decided match is never overwritten: changing an
// outcome requires a full reset.
func Advance(b *Bracket, round, matchIndex int, loserID string) (*AdvanceResult, error) {
	if b == nil || !b.Generated {
		return nil, ErrNotGenerated
	}
	if round < 0 || round >= len(b.Rounds) {
		return nil, fmt.Errorf("%w: round %d does not exist", ErrInvalidAdvance, round)
	}
	matches := b.Rounds[round].Matches
	if matchIndex < 0 || matchIndex >= len(matches) {
		return nil, fmt.Errorf("%w: match %d does not exist in round %d", ErrInvalidAdvance, matchIndex, round)
	}
	match := &matches[matchIndex]
	if match.Decided() {
		return nil, fmt.Errorf("%w: match is already decided", ErrInvalidAdvance)
	}
	if match.Slot1.Kind != SlotResolved || match.Slot2.Kind != SlotResolved {
		return nil, fmt.Errorf("%w: both sides of the match must be known before recording a result", ErrInvalidAdvance)
	}

	var winner Slot
	switch loserID {
	case match.Slot1.TeamID:
		winner = match.Slot2
	case match.Slot2.TeamID:
		winner = match.Slot1
	default:
		return nil, fmt.Errorf("%w: %q is not part of this match", ErrInvalidAdvance, loserID)
	}

	winnerID := winner.TeamID
	match.WinnerID = &winnerID

	final := round == len(b.Rounds)-1
	if !final {
		successor := &b.Rounds[round+1].Matches[matchIndex/2]
		slot := ResolvedSlot(winner.TeamID, winner.Name)
		if matchIndex%2 == 0 {
			successor.Slot1 = slot
		} else {
			successor.Slot2 = slot
		}
	}

	return &AdvanceResult{WinnerID: winnerID, WinnerName: winner.Name, Final: final}, nil
}
