package service

import (
	"context"
	"time"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/repository"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

// ModeratorService manages the ticket-moderator role. Only admins may change it.
type ModeratorService struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewModeratorService constructs the service.
func NewModeratorService(users repository.UserRepository, clock func() time.Time) *ModeratorService {
	return &ModeratorService{users: users, now: clockOrNow(clock)}
}

// ListUsers returns every non-admin user.
func (s *ModeratorService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListNonAdmin(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// ListModerators returns the non-admin users holding the moderator role.
func (s *ModeratorService) ListModerators(ctx context.Context) ([]domain.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	moderators := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.IsTicketsModerator {
			moderators = append(moderators, u)
		}
	}
	return moderators, nil
}

// Promote grants the moderator role and returns the refreshed non-admin listing.
func (s *ModeratorService) Promote(ctx context.Context, admin *domain.User, userID string) ([]domain.User, error) {
	return s.setModerator(ctx, admin, userID, true)
}

// Demote revokes the moderator role and returns the refreshed non-admin listing.
func (s *ModeratorService) Demote(ctx context.Context, admin *domain.User, userID string) ([]domain.User, error) {
	return s.setModerator(ctx, admin, userID, false)
}

func (s *ModeratorService) setModerator(ctx context.Context, admin *domain.User, userID string, moderator bool) ([]domain.User, error) {
	userID, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsAdmin {
		return nil, apperrors.NewForbidden("Only admins can manage moderators")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError("User", err)
	}
	user.IsTicketsModerator = moderator
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError("User", err)
	}
	return s.ListUsers(ctx)
}
