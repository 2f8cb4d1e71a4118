package brackets

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
)

// ErrInsufficientEntries is returned when fewer than two entries are
// available at generation time.
var ErrInsufficientEntries = errors.New("need at least 2 teams to generate a bracket")

// Entry is a roster line: a participant identifier (user ID for solo events,
// team ID for team events) and its resolved display name. The roster is
// snapshotted by the caller at generation time; the bracket does not track
// later roster changes.
type Entry struct {
	ID   string
	Name string
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// Generate builds a complete single-elimination bracket from the given
// entries. Seeding order is randomized with rng (callers inject a fixed
// source in tests); placement is intentionally not skill-based.
//
// When the field is not a power of two, the missing slots become byes spread
// evenly over round 0, never two on the same match. Bye walkovers are decided
// immediately and their winners are filled into round 1 at build time, so the
// first published bracket already reflects them.
func Generate(entries []Entry, rng *rand.Rand) (*Bracket, error) {
	n := len(entries)
	if n < 2 {
		return nil, ErrInsufficientEntries
	}

	seeded := make([]Entry, n)
	copy(seeded, entries)
	rng.Shuffle(n, func(i, j int) {
		seeded[i], seeded[j] = seeded[j], seeded[i]
	})

	size := NextPowerOfTwo(n)
	byeCount := size - n

	numRounds := 0
	for s := size; s > 1; s >>= 1 {
		numRounds++
	}

	// byeCount < firstRound always holds (n > size/2), so spreading one bye
	// per selected match can never double up.
	firstRound := size / 2
	hasBye := make([]bool, firstRound)
	for i := 0; i < byeCount; i++ {
		hasBye[i*firstRound/byeCount] = true
	}

	rounds := make([]Round, numRounds)

	matches := make([]Match, firstRound)
	next := 0
	for i := range matches {
		m := Match{ID: uuid.NewString()}
		entry := seeded[next]
		next++
		m.Slot1 = ResolvedSlot(entry.ID, entry.Name)
		if hasBye[i] {
			m.Slot2 = ByeSlot()
			winnerID := entry.ID
			m.WinnerID = &winnerID
		} else {
			opponent := seeded[next]
			next++
			m.Slot2 = ResolvedSlot(opponent.ID, opponent.Name)
		}
		matches[i] = m
	}
	rounds[0] = Round{Matches: matches}

	for r := 1; r < numRounds; r++ {
		feeders := rounds[r-1].Matches
		matches := make([]Match, len(feeders)/2)
		for i := range matches {
			matches[i] = Match{
				ID:    uuid.NewString(),
				Slot1: feederSlot(&feeders[2*i]),
				Slot2: feederSlot(&feeders[2*i+1]),
			}
		}
		rounds[r] = Round{Matches: matches}
	}

	return &Bracket{Generated: true, Rounds: rounds}, nil
}

// feederSlot derives the slot a feeder match contributes to its successor:
// resolved eagerly for a bye walkover, pending otherwise.
func feederSlot(feeder *Match) Slot {
	if winner := feeder.winnerSlot(); winner != nil {
		return ResolvedSlot(winner.TeamID, winner.Name)
	}
	return PendingSlot(feeder.ID)
}
