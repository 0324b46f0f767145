package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"travel-journal/internal/media"
	"travel-journal/internal/model"
	"travel-journal/internal/repository"
)

type ProfileService struct {
	userRepo *repository.UserRepository
	media    *media.Policy
	cleaner  media.Cleaner
	logger   *zap.SugaredLogger
}

func NewProfileService(userRepo *repository.UserRepository, policy *media.Policy, cleaner media.Cleaner, logger *zap.SugaredLogger) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		media:    policy,
		cleaner:  cleaner,
		logger:   logger,
	}
}

// UpdateProfilePicture stores picture under the user's deterministic key and
// points the user record at it. A previous picture stored under a different
// key is scheduled for removal.
func (s *ProfileService) UpdateProfilePicture(ctx context.Context, actorID string, picture *media.Payload) (*model.User, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	if picture == nil {
		return nil, fmt.Errorf("%w: profile picture is required", ErrInvalidInput)
	}

	current, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrUserNotFound
	}

	refs, err := s.media.ValidateAndStore(ctx, []media.Payload{*picture}, media.KindProfile, actorID)
	if err != nil {
		return nil, err
	}

	previous := current.ProfilePicture
	updated, err := s.userRepo.SetProfilePicture(ctx, actorID, refs[0])
	if err != nil {
		// the stored object is only referenced if it overwrote the old picture
		if previous == nil || *previous != refs[0] {
			s.scheduleCleanup(ctx, refs, "profile update failed")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if previous != nil && *previous != refs[0] {
		s.scheduleCleanup(ctx, []string{*previous}, "profile picture replaced")
	}
	return updated, nil
}

func (s *ProfileService) scheduleCleanup(ctx context.Context, refs []string, reason string) {
	if s.cleaner == nil {
		return
	}
	req := media.CleanupRequest{Refs: refs, Reason: reason, RequestedAt: time.Now()}
	if err := s.cleaner.Schedule(context.WithoutCancel(ctx), req); err != nil {
		s.logger.Errorw("schedule media cleanup failed", "refs", refs, "reason", reason, "error", err)
	}
}
