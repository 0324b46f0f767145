package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travel-journal/internal/model"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts the entry row, images included, in a single statement and
// returns the new id.
func (r *EntryRepository) Create(ctx context.Context, entry *model.Entry) (string, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error; err != nil {
		return "", fmt.Errorf("create entry failed: %w", err)
	}
	entry.Likes = []string{}
	return entry.ID, nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id string) (*model.Entry, error) {
	var entry model.Entry
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query entry by id failed: %w", err)
	}

	entries := []model.Entry{entry}
	if err := r.loadLikes(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// ListAll returns every entry, newest first.
func (r *EntryRepository) ListAll(ctx context.Context) ([]model.Entry, error) {
	var entries []model.Entry
	if err := r.db.WithContext(ctx).Preload("Author").Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries failed: %w", err)
	}
	if err := r.loadLikes(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListLikedBy returns the entries whose like-set contains userID, newest first.
func (r *EntryRepository) ListLikedBy(ctx context.Context, userID string) ([]model.Entry, error) {
	var entries []model.Entry
	err := r.db.WithContext(ctx).
		Select("entries.*").
		Preload("Author").
		Joins("JOIN entry_likes ON entry_likes.entry_id = entries.id").
		Where("entry_likes.user_id = ?", userID).
		Order("entries.created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list liked entries failed: %w", err)
	}
	if err := r.loadLikes(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes the entry together with its like-set.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&model.EntryLike{}).Error; err != nil {
			return fmt.Errorf("delete entry likes failed: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Entry{})
		if res.Error != nil {
			return fmt.Errorf("delete entry failed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddLike puts userID into the entry's like-set. Adding a present member is a
// no-op at the database level, so concurrent adds never duplicate it.
func (r *EntryRepository) AddLike(ctx context.Context, id, userID string) (*model.Entry, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEntryExists(tx, id); err != nil {
			return err
		}
		like := &model.EntryLike{EntryID: id, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
			// the entry was deleted after the existence check
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return ErrNotFound
			}
			return fmt.Errorf("add like failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, id)
}

// RemoveLike takes userID out of the entry's like-set; removing an absent
// member is a no-op.
func (r *EntryRepository) RemoveLike(ctx context.Context, id, userID string) (*model.Entry, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEntryExists(tx, id); err != nil {
			return err
		}
		if err := tx.Where("entry_id = ? AND user_id = ?", id, userID).Delete(&model.EntryLike{}).Error; err != nil {
			return fmt.Errorf("remove like failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, id)
}

func (r *EntryRepository) reload(ctx context.Context, id string) (*model.Entry, error) {
	entry, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// deleted between the like update and the read
		return nil, ErrNotFound
	}
	return entry, nil
}

func ensureEntryExists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&model.Entry{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check entry failed: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EntryRepository) loadLikes(ctx context.Context, entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
		entries[i].Likes = []string{}
		if entries[i].Images == nil {
			entries[i].Images = []string{}
		}
	}

	var likes []model.EntryLike
	if err := r.db.WithContext(ctx).Where("entry_id IN ?", ids).Order("created_at ASC").Find(&likes).Error; err != nil {
		return fmt.Errorf("load entry likes failed: %w", err)
	}

	byEntry := make(map[string][]string, len(entries))
	for _, like := range likes {
		byEntry[like.EntryID] = append(byEntry[like.EntryID], like.UserID)
	}
	for i := range entries {
		if users, ok := byEntry[entries[i].ID]; ok {
			entries[i].Likes = users
		}
	}
	return nil
}
