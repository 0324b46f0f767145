package repository

import (
	"context"
	"errors"
	"testing"

	"travel-journal/internal/model"
	"travel-journal/internal/testutil"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	user := &model.User{Name: "Aiko", Email: "aiko@example.com", PasswordHash: "hash"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() did not assign an id")
	}

	byEmail, err := repo.GetByEmail(ctx, "aiko@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("GetByEmail() = %+v, want user %s", byEmail, user.ID)
	}

	missing, err := repo.GetByID(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID() = %+v, want nil", missing)
	}

	dup := &model.User{Name: "Other", Email: "aiko@example.com", PasswordHash: "hash"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create() with duplicate email error = %v, want ErrDuplicate", err)
	}
}

func TestUserRepository_SetProfilePicture(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "Aiko")
	repo := NewUserRepository(db)
	ctx := context.Background()

	ref := "/uploads/profile_pictures/profile-u1.png"
	for i := 0; i < 2; i++ {
		user, err := repo.SetProfilePicture(ctx, "u1", ref)
		if err != nil {
			t.Fatalf("SetProfilePicture() call %d error = %v", i+1, err)
		}
		if user.ProfilePicture == nil || *user.ProfilePicture != ref {
			t.Errorf("ProfilePicture = %v, want %q", user.ProfilePicture, ref)
		}
	}

	stored, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.ProfilePicture == nil || *stored.ProfilePicture != ref {
		t.Errorf("stored ProfilePicture = %v, want %q", stored.ProfilePicture, ref)
	}

	if _, err := repo.SetProfilePicture(ctx, "nobody", ref); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetProfilePicture() for missing user error = %v, want ErrNotFound", err)
	}
}
