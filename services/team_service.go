package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bloxevents/event-system/models"
	"github.com/bloxevents/event-system/repositories"
)

type CreateTeamInput struct {
	Name      string `json:"name"`
	MemberIDs []int  `json:"member_ids"`
}

type TeamService interface {
	Create(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error)
	Get(ctx context.Context, id int) (*models.Team, error)
	// AddMember and RemoveMember are captain-only roster edits. The captain
	// cannot be removed; disbanding the team is Delete.
	AddMember(ctx context.Context, teamID, actorID, userID int) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, actorID, userID int) (*models.Team, error)
	Delete(ctx context.Context, teamID, actorID int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo}
}

func (s *teamService) Create(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	members := make([]int, 0, len(input.MemberIDs)+1)
	members = append(members, captainID)
	for _, id := range input.MemberIDs {
		if id != captainID {
			members = append(members, id)
		}
	}

	team := &models.Team{
		Name:      name,
		CaptainID: captainID,
		MemberIDs: members,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, actorID, userID int) (*models.Team, error) {
	team, err := s.loadAsCaptain(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	for _, id := range team.MemberIDs {
		if id == userID {
			return nil, ErrTeamMemberConflict
		}
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	team.MemberIDs = append(team.MemberIDs, userID)
	if err := s.teamRepo.UpdateMembers(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to update team members: %w", err)
	}
	return team, nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, actorID, userID int) (*models.Team, error) {
	team, err := s.loadAsCaptain(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if userID == team.CaptainID {
		return nil, ErrForbiddenOperation
	}

	kept := team.MemberIDs[:0]
	found := false
	for _, id := range team.MemberIDs {
		if id == userID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return nil, ErrTeamMemberNotFound
	}

	team.MemberIDs = kept
	if err := s.teamRepo.UpdateMembers(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to update team members: %w", err)
	}
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, teamID, actorID int) error {
	if _, err := s.loadAsCaptain(ctx, teamID, actorID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

func (s *teamService) loadAsCaptain(ctx context.Context, teamID, actorID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.CaptainID != actorID {
		return nil, ErrForbiddenOperation
	}
	return team, nil
}

func (s *teamService) Get(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := s.userRepo.ListByIDs(ctx, team.MemberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	team.Members = members
	return team, nil
}
