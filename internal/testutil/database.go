// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"travel-journal/internal/model"
	"travel-journal/internal/platform/database"
)

// NewDB returns a migrated in-memory sqlite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.New(context.Background(), "sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given id and display name.
func CreateUser(t *testing.T, db *gorm.DB, id, name string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           id,
		Name:         name,
		Email:        id + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return user
}

// CreateEntry inserts an entry owned by userID with a fixed creation time.
func CreateEntry(t *testing.T, db *gorm.DB, userID, title string, createdAt time.Time) *model.Entry {
	t.Helper()

	entry := &model.Entry{
		UserID:      userID,
		Title:       title,
		Location:    "Somewhere",
		VisitDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Description: "A day out",
		Images:      []string{},
		CreatedAt:   createdAt,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("create entry %s: %v", title, err)
	}
	return entry
}
