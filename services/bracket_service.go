package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/bloxevents/event-system/brackets"
	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
)

// Publisher is the fan-out half of the live sync boundary; *brackets.Hub
// satisfies it. Commits themselves are serialized by the conditional update
// in the event repository.
type Publisher interface {
	BroadcastToRoom(roomID string, message interface{})
}

type BracketService interface {
	// Generate snapshots the event roster, builds a bracket from it and
	// commits it. The roster is not re-read afterwards; later joins and
	// leaves do not touch an existing bracket.
	Generate(ctx context.Context, eventID, actorID int) (*models.Event, error)
	// Advance records the loser of the match at (round, matchIndex) and
	// propagates the winner. Deciding the final also sets the event winners
	// and ends the event, in the same commit.
	Advance(ctx context.Context, eventID, actorID, round, matchIndex int, loserID string) (*models.Event, error)
	// Reset discards the bracket entirely. Idempotent: resetting an event
	// without a generated bracket is a successful no-op. A later Generate
	// assigns all-new match IDs, so viewers must treat the old bracket as
	// replaced, never patched.
	Reset(ctx context.Context, eventID, actorID int) (*models.Event, error)
	// Layout computes rendering-independent geometry for the current bracket.
	Layout(ctx context.Context, eventID int) (*brackets.Layout, error)
}

type bracketService struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	teamRepo  repositories.TeamRepository
	hub       Publisher
	logger    *slog.Logger
	newRand   func() *rand.Rand
}

// NewBracketService wires the bracket engine. newRand supplies the seeding
// source for Generate; pass nil for a time-seeded default (tests inject a
// fixed source for deterministic brackets).
func NewBracketService(
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	hub Publisher,
	logger *slog.Logger,
	newRand func() *rand.Rand,
) BracketService {
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &bracketService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		hub:       hub,
		logger:    logger,
		newRand:   newRand,
	}
}

func (s *bracketService) Generate(ctx context.Context, eventID, actorID int) (*models.Event, error) {
	event, err := s.loadTournament(ctx, eventID, actorID)
	if err != nil {
		return nil, err
	}
	if event.BracketGenerated() {
		return nil, ErrBracketAlreadyGenerated
	}
	if event.Status == models.EventEnded {
		return nil, ErrEventEnded
	}
	if len(event.Participants) < 2 {
		return nil, ErrInsufficientParticipants
	}

	entries, err := s.resolveEntries(ctx, event)
	if err != nil {
		return nil, err
	}

	bracket, err := brackets.Generate(entries, s.newRand())
	if err != nil {
		if errors.Is(err, brackets.ErrInsufficientEntries) {
			return nil, ErrInsufficientParticipants
		}
		return nil, fmt.Errorf("failed to generate bracket: %w", err)
	}

	event.Bracket = bracket
	if err := s.commit(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("bracket generated",
		slog.Int("event_id", event.ID),
		slog.Int("participants", len(event.Participants)),
		slog.Int("rounds", len(bracket.Rounds)))
	s.publish(brackets.MsgBracketUpdated, event)
	return event, nil
}

func (s *bracketService) Advance(ctx context.Context, eventID, actorID, round, matchIndex int, loserID string) (*models.Event, error) {
	event, err := s.loadTournament(ctx, eventID, actorID)
	if err != nil {
		return nil, err
	}
	if !event.BracketGenerated() {
		return nil, ErrBracketNotGenerated
	}

	result, err := brackets.Advance(event.Bracket, round, matchIndex, loserID)
	if err != nil {
		if errors.Is(err, brackets.ErrNotGenerated) {
			return nil, ErrBracketNotGenerated
		}
		return nil, err
	}

	messageType := brackets.MsgBracketUpdated
	if result.Final {
		event.Winners = []string{result.WinnerID}
		event.Status = models.EventEnded
		messageType = brackets.MsgEventCompleted
	}

	if err := s.commit(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("bracket advanced",
		slog.Int("event_id", event.ID),
		slog.Int("round", round),
		slog.Int("match", matchIndex),
		slog.String("winner", result.WinnerID),
		slog.Bool("final", result.Final))
	s.publish(messageType, event)
	return event, nil
}

func (s *bracketService) Reset(ctx context.Context, eventID, actorID int) (*models.Event, error) {
	event, err := s.loadTournament(ctx, eventID, actorID)
	if err != nil {
		return nil, err
	}

	event.Bracket = &brackets.Bracket{Generated: false}
	event.Winners = nil
	// A completed tournament reopens on reset so the outcome can be re-run.
	event.Status = models.EventActive

	if err := s.commit(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("bracket reset", slog.Int("event_id", event.ID))
	s.publish(brackets.MsgBracketReset, event)
	return event, nil
}

func (s *bracketService) Layout(ctx context.Context, eventID int) (*brackets.Layout, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !event.BracketGenerated() {
		return nil, ErrBracketNotGenerated
	}

	memberCounts := map[string]int{}
	if !event.Solo() {
		teams, err := s.teamRepo.ListByIDs(ctx, rosterIDs(event))
		if err != nil {
			return nil, fmt.Errorf("failed to load teams for layout: %w", err)
		}
		for _, team := range teams {
			memberCounts[participantKey(team.ID)] = len(team.MemberIDs)
		}
	}

	return brackets.ComputeLayout(event.Bracket, event.TeamSize, memberCounts), nil
}

func (s *bracketService) loadTournament(ctx context.Context, eventID, actorID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if err := authorizeEventAdmin(ctx, s.userRepo, event, actorID); err != nil {
		return nil, err
	}
	if event.Type != models.TypeTournament {
		return nil, ErrNotTournament
	}
	return event, nil
}

// resolveEntries turns the roster snapshot into bracket entries with display
// names resolved once, at generation time.
func (s *bracketService) resolveEntries(ctx context.Context, event *models.Event) ([]brackets.Entry, error) {
	names := make(map[string]string, len(event.Participants))

	if event.Solo() {
		users, err := s.userRepo.ListByIDs(ctx, rosterIDs(event))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve participant names: %w", err)
		}
		for _, u := range users {
			names[participantKey(u.ID)] = u.DisplayName
		}
	} else {
		teams, err := s.teamRepo.ListByIDs(ctx, rosterIDs(event))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve team names: %w", err)
		}
		for _, t := range teams {
			names[participantKey(t.ID)] = t.Name
		}
	}

	entries := make([]brackets.Entry, 0, len(event.Participants))
	for _, p := range event.Participants {
		name, ok := names[p]
		if !ok || name == "" {
			name = "Participant " + p
		}
		entries = append(entries, brackets.Entry{ID: p, Name: name})
	}
	return entries, nil
}

func (s *bracketService) commit(ctx context.Context, event *models.Event) error {
	if err := s.eventRepo.UpdateOutcome(ctx, nil, event); err != nil {
		if errors.Is(err, repositories.ErrEventVersionConflict) {
			return ErrEventConflict
		}
		return fmt.Errorf("failed to commit bracket: %w", err)
	}
	return nil
}

func (s *bracketService) publish(messageType string, event *models.Event) {
	room := brackets.EventRoom(event.ID)
	s.hub.BroadcastToRoom(room, brackets.SyncMessage{
		Type:    messageType,
		Payload: event,
		Room:    room,
	})
}
