package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/bloxevents/event-system/brackets"
	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
	"github.com/bloxevents/event-system/storage"
	"golang.org/x/sync/errgroup"
)

type CreateEventInput struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Type        models.EventType `json:"type"`
	TeamSize    int              `json:"team_size"`
	StartsAt    *time.Time       `json:"starts_at"`
	EndsAt      *time.Time       `json:"ends_at"`
}

type EventService interface {
	Create(ctx context.Context, hostID int, input CreateEventInput) (*models.Event, error)
	Get(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, filter repositories.ListEventsFilter) ([]models.Event, error)
	Join(ctx context.Context, eventID, userID int, teamID *int) (*models.Event, error)
	Leave(ctx context.Context, eventID, userID int, teamID *int) (*models.Event, error)
	DrawGiveaway(ctx context.Context, eventID, actorID int) (*models.Event, error)
	UploadBanner(ctx context.Context, eventID, actorID int, contentType string, data io.Reader) (*models.Event, error)
	Delete(ctx context.Context, eventID, actorID int) error
}

type eventService struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	teamRepo  repositories.TeamRepository
	uploader  storage.FileUploader
	hub       Publisher
	logger    *slog.Logger
	newRand   func() *rand.Rand
}

func NewEventService(
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	hub Publisher,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		uploader:  uploader,
		hub:       hub,
		logger:    logger,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *eventService) Create(ctx context.Context, hostID int, input CreateEventInput) (*models.Event, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrEventTitleRequired
	}
	switch input.Type {
	case models.TypeGiveaway, models.TypeTournament, models.TypeGeneric:
	default:
		return nil, ErrEventInvalidType
	}
	teamSize := input.TeamSize
	if teamSize == 0 {
		teamSize = 1
	}
	if teamSize < 1 {
		return nil, ErrEventInvalidTeamSize
	}

	event := &models.Event{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Type:         input.Type,
		Status:       models.EventActive,
		HostID:       hostID,
		TeamSize:     teamSize,
		Participants: []string{},
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventInvalidHost) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created",
		slog.Int("event_id", event.ID),
		slog.String("type", string(event.Type)),
		slog.Int("host_id", hostID))
	return s.withBannerURL(event), nil
}

// Get loads the event together with its host and, for team events, the teams
// on the roster. The related lookups run in parallel.
func (s *eventService) Get(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		host, err := s.userRepo.GetByID(gCtx, event.HostID)
		if err != nil {
			return fmt.Errorf("failed to load event host %d: %w", event.HostID, err)
		}
		host.PasswordHash = ""
		event.Host = host
		return nil
	})

	if !event.Solo() {
		g.Go(func() error {
			teams, err := s.teamRepo.ListByIDs(gCtx, rosterIDs(event))
			if err != nil {
				return fmt.Errorf("failed to load event teams: %w", err)
			}
			event.Teams = teams
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.withBannerURL(event), nil
}

func (s *eventService) List(ctx context.Context, filter repositories.ListEventsFilter) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for i := range events {
		s.withBannerURL(&events[i])
	}
	return events, nil
}

func (s *eventService) Join(ctx context.Context, eventID, userID int, teamID *int) (*models.Event, error) {
	event, key, err := s.loadForRosterChange(ctx, eventID, userID, teamID)
	if err != nil {
		return nil, err
	}
	if containsParticipant(event.Participants, key) {
		return nil, ErrAlreadyJoined
	}

	event.Participants = append(event.Participants, key)
	if err := s.eventRepo.UpdateParticipants(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("failed to save participants: %w", err)
	}
	return event, nil
}

func (s *eventService) Leave(ctx context.Context, eventID, userID int, teamID *int) (*models.Event, error) {
	event, key, err := s.loadForRosterChange(ctx, eventID, userID, teamID)
	if err != nil {
		return nil, err
	}

	kept := event.Participants[:0]
	found := false
	for _, p := range event.Participants {
		if p == key {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, ErrNotJoined
	}

	event.Participants = kept
	if err := s.eventRepo.UpdateParticipants(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("failed to save participants: %w", err)
	}
	return event, nil
}

// loadForRosterChange resolves the participant key for a join/leave request
// and rejects roster changes once the event has ended or its bracket exists
// (the bracket snapshots the roster at generation time).
func (s *eventService) loadForRosterChange(ctx context.Context, eventID, userID int, teamID *int) (*models.Event, string, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, "", ErrEventNotFound
		}
		return nil, "", err
	}
	if event.Status == models.EventEnded {
		return nil, "", ErrEventEnded
	}
	if event.BracketGenerated() {
		return nil, "", ErrBracketAlreadyGenerated
	}

	if event.Solo() {
		return event, participantKey(userID), nil
	}

	if teamID == nil {
		return nil, "", fmt.Errorf("%w: team events require a team_id", ErrValidationFailed)
	}
	team, err := s.teamRepo.GetByID(ctx, *teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, "", ErrTeamNotFound
		}
		return nil, "", err
	}
	if team.CaptainID != userID {
		return nil, "", ErrForbiddenOperation
	}
	return event, participantKey(team.ID), nil
}

// DrawGiveaway picks a uniformly random winner from the roster and ends the
// event. Admin-only, like every other outcome mutation.
func (s *eventService) DrawGiveaway(ctx context.Context, eventID, actorID int) (*models.Event, error) {
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
	if event.Type != models.TypeGiveaway {
		return nil, ErrNotGiveaway
	}
	if event.Status == models.EventEnded {
		return nil, ErrEventEnded
	}
	if len(event.Participants) == 0 {
		return nil, ErrGiveawayNoParticipants
	}

	winner := event.Participants[s.newRand().Intn(len(event.Participants))]
	event.Winners = []string{winner}
	event.Status = models.EventEnded

	if err := s.eventRepo.UpdateOutcome(ctx, nil, event); err != nil {
		if errors.Is(err, repositories.ErrEventVersionConflict) {
			return nil, ErrEventConflict
		}
		return nil, fmt.Errorf("failed to save giveaway outcome: %w", err)
	}

	s.logger.Info("giveaway drawn",
		slog.Int("event_id", event.ID), slog.String("winner", winner))
	s.hub.BroadcastToRoom(brackets.EventRoom(event.ID), brackets.SyncMessage{
		Type:    brackets.MsgEventCompleted,
		Payload: event,
		Room:    brackets.EventRoom(event.ID),
	})
	return event, nil
}

func (s *eventService) UploadBanner(ctx context.Context, eventID, actorID int, contentType string, data io.Reader) (*models.Event, error) {
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

	key := fmt.Sprintf("events/%d/banner-%d", event.ID, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	oldKey := event.BannerKey
	if err := s.eventRepo.UpdateBannerKey(ctx, event.ID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save banner key: %w", err)
	}
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	event.BannerKey = &result.Key
	return s.withBannerURL(event), nil
}

func (s *eventService) Delete(ctx context.Context, eventID, actorID int) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	if err := authorizeEventAdmin(ctx, s.userRepo, event, actorID); err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if event.BannerKey != nil {
		if delErr := s.uploader.Delete(ctx, *event.BannerKey); delErr != nil {
			s.logger.Warn("failed to delete event banner",
				slog.String("key", *event.BannerKey), slog.Any("error", delErr))
		}
	}

	s.logger.Info("event deleted", slog.Int("event_id", eventID), slog.Int("actor_id", actorID))
	return nil
}

func (s *eventService) withBannerURL(event *models.Event) *models.Event {
	if event.BannerKey != nil && s.uploader != nil {
		if url := s.uploader.GetPublicURL(*event.BannerKey); url != "" {
			event.BannerURL = &url
		}
	}
	return event
}

func rosterIDs(event *models.Event) []int {
	ids := make([]int, 0, len(event.Participants))
	for _, p := range event.Participants {
		if id, ok := participantID(p); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
