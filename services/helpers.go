package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
)

// authorizeEventAdmin allows mutating event operations for the event host and
// platform admins only. The bracket core itself stays mechanism-agnostic;
// this is the single place the capability check happens.
func authorizeEventAdmin(ctx context.Context, userRepo repositories.UserRepository, event *models.Event, actorID int) error {
	if event.HostID == actorID {
		return nil
	}
	actor, err := userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrForbiddenOperation
		}
		return err
	}
	if actor.Role != models.RoleAdmin {
		return ErrForbiddenOperation
	}
	return nil
}

// Participant identifiers are stored as strings on the event document: user
// IDs for solo events, team IDs for team events.
func participantKey(id int) string {
	return strconv.Itoa(id)
}

func participantID(key string) (int, bool) {
	id, err := strconv.Atoi(key)
	return id, err == nil
}

func containsParticipant(participants []string, key string) bool {
	for _, p := range participants {
		if p == key {
			return true
		}
	}
	return false
}
