package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"travel-journal/internal/media"
	"travel-journal/internal/model"
	"travel-journal/internal/repository"
)

type EntryCache interface {
	Get(ctx context.Context, id string) (*model.Entry, bool, error)
	Set(ctx context.Context, entry *model.Entry) error
	Invalidate(ctx context.Context, id string) error
	IsDirty(ctx context.Context, id string) (bool, error)
}

type EntryService struct {
	entryRepo *repository.EntryRepository
	media     *media.Policy
	cleaner   media.Cleaner
	cache     EntryCache
	logger    *zap.SugaredLogger
}

type CreateEntryInput struct {
	Title       string
	Location    string
	Date        string
	Description string
	Images      []media.Payload
}

// NewEntryService wires the entry use cases. entryCache may be nil.
func NewEntryService(
	entryRepo *repository.EntryRepository,
	policy *media.Policy,
	cleaner media.Cleaner,
	entryCache EntryCache,
	logger *zap.SugaredLogger,
) *EntryService {
	return &EntryService{
		entryRepo: entryRepo,
		media:     policy,
		cleaner:   cleaner,
		cache:     entryCache,
		logger:    logger,
	}
}

// Create validates the fields and images, stores the images and then
// inserts the entry with their references in one statement.
func (s *EntryService) Create(ctx context.Context, actorID string, input CreateEntryInput) (*model.Entry, error) {
	if !CanCreate(actorID) {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(input.Title)
	location := strings.TrimSpace(input.Location)
	description := strings.TrimSpace(input.Description)
	if title == "" || location == "" || description == "" || strings.TrimSpace(input.Date) == "" {
		return nil, fmt.Errorf("%w: title, location, date and description are required", ErrInvalidInput)
	}
	visitDate, err := ParseVisitDate(input.Date)
	if err != nil {
		return nil, err
	}
	if len(input.Images) > model.MaxEntryImages {
		return nil, fmt.Errorf("%w: at most %d images per entry", ErrTooManyAttachments, model.MaxEntryImages)
	}

	refs, err := s.media.ValidateAndStore(ctx, input.Images, media.KindEntry, actorID)
	if err != nil {
		return nil, err
	}

	entry := &model.Entry{
		UserID:      actorID,
		Title:       title,
		Location:    location,
		VisitDate:   visitDate,
		Description: description,
		Images:      refs,
	}
	id, err := s.entryRepo.Create(ctx, entry)
	if err != nil {
		s.scheduleCleanup(ctx, refs, "entry insert failed")
		return nil, err
	}

	created, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrEntryNotFound
	}
	return created, nil
}

func (s *EntryService) Get(ctx context.Context, id string) (*model.Entry, error) {
	if !CanRead() {
		return nil, ErrForbidden
	}
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, id)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.Get(ctx, id); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	if s.cache != nil && entry.Author != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, id); dirtyErr == nil && !dirty {
			if err := s.cache.Set(ctx, entry); err != nil {
				s.logger.Warnw("cache entry failed", "entry_id", id, "error", err)
			}
		}
	}
	return entry, nil
}

func (s *EntryService) ListAll(ctx context.Context) ([]model.Entry, error) {
	if !CanRead() {
		return nil, ErrForbidden
	}
	return s.entryRepo.ListAll(ctx)
}

func (s *EntryService) ListLiked(ctx context.Context, actorID string) ([]model.Entry, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	return s.entryRepo.ListLikedBy(ctx, actorID)
}

// ToggleLike flips actorID's membership in the entry's like-set and returns
// the entry as committed.
func (s *EntryService) ToggleLike(ctx context.Context, entryID, actorID string) (*model.Entry, error) {
	if !CanToggleLike(actorID) {
		return nil, ErrUnauthenticated
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	var updated *model.Entry
	if entry.LikedBy(actorID) {
		updated, err = s.entryRepo.RemoveLike(ctx, entryID, actorID)
	} else {
		updated, err = s.entryRepo.AddLike(ctx, entryID, actorID)
	}
	s.invalidate(ctx, entryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an entry owned by actorID. A missing entry reports
// ErrEntryNotFound and another user's entry ErrForbidden.
func (s *EntryService) Delete(ctx context.Context, entryID, actorID string) error {
	if actorID == "" {
		return ErrUnauthenticated
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	if !CanDelete(actorID, entry) {
		return ErrForbidden
	}

	err = s.entryRepo.Delete(ctx, entryID)
	s.invalidate(ctx, entryID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}

	s.scheduleCleanup(ctx, entry.Images, "entry deleted")
	return nil
}

func (s *EntryService) invalidate(ctx context.Context, entryID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, entryID); err != nil {
		s.logger.Warnw("invalidate entry cache failed", "entry_id", entryID, "error", err)
	}
}

func (s *EntryService) scheduleCleanup(ctx context.Context, refs []string, reason string) {
	if len(refs) == 0 || s.cleaner == nil {
		return
	}
	req := media.CleanupRequest{Refs: refs, Reason: reason, RequestedAt: time.Now()}
	if err := s.cleaner.Schedule(context.WithoutCancel(ctx), req); err != nil {
		s.logger.Errorw("schedule media cleanup failed", "refs", refs, "reason", reason, "error", err)
	}
}

// ParseVisitDate accepts a calendar date (2006-01-02) or an RFC 3339
// timestamp.
func ParseVisitDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, raw); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC 3339", ErrInvalidInput)
}
