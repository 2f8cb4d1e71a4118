package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/bloxevents/event-system/brackets"
	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bracketFixture struct {
	events  *fakeEventRepo
	users   *fakeUserRepo
	teams   *fakeTeamRepo
	hub     *fakePublisher
	service BracketService

	host  *models.User
	event *models.Event
}

func seededRand() func() *rand.Rand {
	return func() *rand.Rand { return rand.New(rand.NewSource(42)) }
}

// newBracketFixture sets up a solo tournament hosted by user 1 with the given
// number of registered participants.
func newBracketFixture(t *testing.T, participants int) *bracketFixture {
	t.Helper()

	f := &bracketFixture{
		events: newFakeEventRepo(),
		users:  newFakeUserRepo(),
		teams:  newFakeTeamRepo(),
		hub:    &fakePublisher{},
	}
	f.service = NewBracketService(f.events, f.users, f.teams, f.hub, testLogger(), seededRand())

	host := f.users.put(models.User{Username: "host", DisplayName: "Host", Role: models.RoleMember})
	f.host = &host

	event := &models.Event{
		Title:    "Obby Cup",
		Type:     models.TypeTournament,
		Status:   models.EventActive,
		HostID:   host.ID,
		TeamSize: 1,
	}
	for i := 0; i < participants; i++ {
		u := f.users.put(models.User{
			Username:    fmt.Sprintf("player%d", i+1),
			DisplayName: fmt.Sprintf("Player %d", i+1),
			Role:        models.RoleMember,
		})
		event.Participants = append(event.Participants, participantKey(u.ID))
	}
	require.NoError(t, f.events.Create(context.Background(), event))
	f.event = event
	return f
}

func (f *bracketFixture) lastPublished(t *testing.T) publishedMessage {
	t.Helper()
	messages := f.hub.published()
	require.NotEmpty(t, messages)
	return messages[len(messages)-1]
}

func TestBracketGenerate(t *testing.T) {
	f := newBracketFixture(t, 5)
	ctx := context.Background()

	event, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)
	require.True(t, event.BracketGenerated())
	assert.Len(t, event.Bracket.Rounds, 3, "5 entries pad to a field of 8")

	// Display names were resolved at generation time.
	names := map[string]bool{}
	for _, m := range event.Bracket.Rounds[0].Matches {
		for _, slot := range []brackets.Slot{m.Slot1, m.Slot2} {
			if slot.Kind == brackets.SlotResolved {
				names[slot.Name] = true
			}
		}
	}
	for i := 1; i <= 5; i++ {
		assert.True(t, names[fmt.Sprintf("Player %d", i)], "Player %d placed", i)
	}

	// The commit bumped the version and reached the store.
	stored, err := f.events.GetByID(ctx, f.event.ID)
	require.NoError(t, err)
	assert.True(t, stored.BracketGenerated())
	assert.Equal(t, 2, stored.Version)

	msg := f.lastPublished(t)
	assert.Equal(t, brackets.EventRoom(event.ID), msg.Room)
	sync, ok := msg.Message.(brackets.SyncMessage)
	require.True(t, ok)
	assert.Equal(t, brackets.MsgBracketUpdated, sync.Type)
}

func TestBracketGenerateTwiceConflicts(t *testing.T) {
	f := newBracketFixture(t, 4)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)

	_, err = f.service.Generate(ctx, f.event.ID, f.host.ID)
	assert.ErrorIs(t, err, ErrBracketAlreadyGenerated)
}

func TestBracketGenerateAuthorization(t *testing.T) {
	f := newBracketFixture(t, 4)
	ctx := context.Background()

	stranger := f.users.put(models.User{Username: "stranger", DisplayName: "Stranger", Role: models.RoleMember})
	_, err := f.service.Generate(ctx, f.event.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	admin := f.users.put(models.User{Username: "staff", DisplayName: "Staff", Role: models.RoleAdmin})
	_, err = f.service.Generate(ctx, f.event.ID, admin.ID)
	assert.NoError(t, err, "platform admins may run any event")
}

func TestBracketGenerateValidation(t *testing.T) {
	t.Run("too few participants", func(t *testing.T) {
		f := newBracketFixture(t, 1)
		_, err := f.service.Generate(context.Background(), f.event.ID, f.host.ID)
		assert.ErrorIs(t, err, ErrInsufficientParticipants)
	})

	t.Run("not a tournament", func(t *testing.T) {
		f := newBracketFixture(t, 4)
		f.event.Type = models.TypeGiveaway
		f.events.put(f.event)

		_, err := f.service.Generate(context.Background(), f.event.ID, f.host.ID)
		assert.ErrorIs(t, err, ErrNotTournament)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newBracketFixture(t, 4)
		_, err := f.service.Generate(context.Background(), 999, f.host.ID)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

// Plays a generated bracket through the service until the final, checking that
// deciding the final ends the event and names the champion.
func TestBracketAdvanceToCompletion(t *testing.T) {
	f := newBracketFixture(t, 4)
	ctx := context.Background()

	event, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)

	for r := range event.Bracket.Rounds {
		for i := range event.Bracket.Rounds[r].Matches {
			m := event.Bracket.Rounds[r].Matches[i]
			if m.Decided() {
				continue
			}
			event, err = f.service.Advance(ctx, f.event.ID, f.host.ID, r, i, m.Slot2.TeamID)
			require.NoError(t, err)
		}
	}

	assert.Equal(t, models.EventEnded, event.Status)
	champion := event.Bracket.Champion()
	require.NotNil(t, champion)
	require.Len(t, event.Winners, 1)
	assert.Equal(t, champion.TeamID, event.Winners[0])

	msg := f.lastPublished(t)
	sync := msg.Message.(brackets.SyncMessage)
	assert.Equal(t, brackets.MsgEventCompleted, sync.Type)

	// The decided final is durable.
	stored, err := f.events.GetByID(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventEnded, stored.Status)
	assert.Equal(t, event.Winners, stored.Winners)
}

func TestBracketAdvanceRejectsInvalidResult(t *testing.T) {
	f := newBracketFixture(t, 4)
	ctx := context.Background()

	_, err := f.service.Advance(ctx, f.event.ID, f.host.ID, 0, 0, "1")
	assert.ErrorIs(t, err, ErrBracketNotGenerated)

	event, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)

	_, err = f.service.Advance(ctx, f.event.ID, f.host.ID, 0, 0, "not-a-participant")
	assert.ErrorIs(t, err, brackets.ErrInvalidAdvance)

	// Deciding the final ahead of its feeders is blocked.
	loser := event.Bracket.Rounds[0].Matches[0].Slot1.TeamID
	_, err = f.service.Advance(ctx, f.event.ID, f.host.ID, 1, 0, loser)
	assert.ErrorIs(t, err, brackets.ErrInvalidAdvance)
}

func TestBracketAdvanceVersionConflict(t *testing.T) {
	f := newBracketFixture(t, 4)
	ctx := context.Background()

	event, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)

	f.events.failNextUpdateOutcome = repositories.ErrEventVersionConflict
	loser := event.Bracket.Rounds[0].Matches[0].Slot1.TeamID
	_, err = f.service.Advance(ctx, f.event.ID, f.host.ID, 0, 0, loser)
	assert.ErrorIs(t, err, ErrEventConflict)

	// The losing session's write never reached the store.
	stored, err := f.events.GetByID(ctx, f.event.ID)
	require.NoError(t, err)
	assert.False(t, stored.Bracket.Rounds[0].Matches[0].Decided())
}

func TestBracketReset(t *testing.T) {
	f := newBracketFixture(t, 2)
	ctx := context.Background()

	event, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)

	// Finish the tournament, then reset: the event reopens with no bracket
	// and no winners.
	loser := event.Bracket.Rounds[0].Matches[0].Slot1.TeamID
	event, err = f.service.Advance(ctx, f.event.ID, f.host.ID, 0, 0, loser)
	require.NoError(t, err)
	require.Equal(t, models.EventEnded, event.Status)

	event, err = f.service.Reset(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)
	assert.False(t, event.BracketGenerated())
	assert.Empty(t, event.Winners)
	assert.Equal(t, models.EventActive, event.Status)

	sync := f.lastPublished(t).Message.(brackets.SyncMessage)
	assert.Equal(t, brackets.MsgBracketReset, sync.Type)

	// Regenerating after a reset issues all-new match IDs.
	regenerated, err := f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)
	assert.True(t, regenerated.BracketGenerated())
}

func TestBracketResetIsIdempotent(t *testing.T) {
	f := newBracketFixture(t, 3)
	ctx := context.Background()

	// Reset succeeds with no bracket at all, and again right after.
	event, err := f.service.Reset(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)
	assert.False(t, event.BracketGenerated())

	event, err = f.service.Reset(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)
	assert.False(t, event.BracketGenerated())
	assert.Equal(t, models.EventActive, event.Status)
}

func TestBracketLayout(t *testing.T) {
	f := newBracketFixture(t, 4)
	ctx := context.Background()

	_, err := f.service.Layout(ctx, f.event.ID)
	assert.ErrorIs(t, err, ErrBracketNotGenerated)

	_, err = f.service.Generate(ctx, f.event.ID, f.host.ID)
	require.NoError(t, err)

	layout, err := f.service.Layout(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Len(t, layout.Cards, 3)
	assert.Len(t, layout.Connectors, 2)
}
