package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxEntryImages caps the image sequence of a single entry.
const MaxEntryImages = 3

// Entry is a travel journal record. UserID is fixed at creation; the
// like-set lives in the entry_likes table and is loaded into Likes on reads.
type Entry struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;index" json:"-"`
	Author      *Author   `gorm:"foreignKey:UserID" json:"user"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Location    string    `gorm:"size:256;not null" json:"location"`
	VisitDate   time.Time `gorm:"not null" json:"date"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Images      []string  `gorm:"serializer:json;type:text" json:"images"`
	Likes       []string  `gorm:"-" json:"likes"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Entry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Images == nil {
		e.Images = []string{}
	}
	return nil
}

// OwnerID returns the id of the user who created the entry.
func (e *Entry) OwnerID() string {
	return e.UserID
}

func (e *Entry) LikedBy(userID string) bool {
	return slices.Contains(e.Likes, userID)
}

// Author is the public projection of the owning user embedded in entry reads.
type Author struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:64;not null" json:"name"`
}

func (Author) TableName() string {
	return "users"
}

// EntryLike is one member of an entry's like-set. The composite primary key
// keeps each user in the set at most once; deleting the entry deletes its likes.
type EntryLike struct {
	EntryID   string    `gorm:"primaryKey;size:36" json:"entry_id"`
	Entry     *Entry    `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
