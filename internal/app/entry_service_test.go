package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travel-journal/internal/cache"
	"travel-journal/internal/media"
	"travel-journal/internal/repository"
	"travel-journal/internal/testutil"
)

type recordingCleaner struct {
	mu       sync.Mutex
	requests []media.CleanupRequest
}

func (r *recordingCleaner) Schedule(_ context.Context, req media.CleanupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

type entryFixture struct {
	db      *gorm.DB
	store   *media.MemoryStore
	cleaner *recordingCleaner
	service *EntryService
}

func newEntryFixture(t *testing.T, entryCache EntryCache) *entryFixture {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "Aiko")
	testutil.CreateUser(t, db, "u2", "Ben")
	testutil.CreateUser(t, db, "u3", "Chloe")

	store := media.NewMemoryStore()
	policy := media.NewPolicy(store, "/uploads", media.ProfileRule(1_000_000), media.EntryRule(5_000_000, 3))
	cleaner := &recordingCleaner{}
	service := NewEntryService(repository.NewEntryRepository(db), policy, cleaner, entryCache, zap.NewNop().Sugar())
	return &entryFixture{db: db, store: store, cleaner: cleaner, service: service}
}

func kyoto() CreateEntryInput {
	return CreateEntryInput{
		Title:       "Kyoto",
		Location:    "Japan",
		Date:        "2024-04-01",
		Description: "Cherry blossoms",
	}
}

func TestEntryService_KyotoScenario(t *testing.T) {
	f := newEntryFixture(t, nil)
	ctx := context.Background()

	entry, err := f.service.Create(ctx, "u1", kyoto())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(entry.Images) != 0 || len(entry.Likes) != 0 {
		t.Errorf("new entry images = %v likes = %v, want both empty", entry.Images, entry.Likes)
	}
	if entry.OwnerID() != "u1" || entry.Author == nil || entry.Author.Name != "Aiko" {
		t.Errorf("new entry owner = %q author = %+v, want u1/Aiko", entry.OwnerID(), entry.Author)
	}
	wantDate := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if !entry.VisitDate.Equal(wantDate) {
		t.Errorf("VisitDate = %v, want %v", entry.VisitDate, wantDate)
	}

	liked, err := f.service.ToggleLike(ctx, entry.ID, "u2")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(liked.Likes) != 1 || liked.Likes[0] != "u2" {
		t.Fatalf("Likes after first toggle = %v, want [u2]", liked.Likes)
	}

	unliked, err := f.service.ToggleLike(ctx, entry.ID, "u2")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(unliked.Likes) != 0 {
		t.Fatalf("Likes after second toggle = %v, want []", unliked.Likes)
	}

	if err := f.service.Delete(ctx, entry.ID, "u3"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrForbidden", err)
	}
	if err := f.service.Delete(ctx, entry.ID, "u1"); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
	if _, err := f.service.Get(ctx, entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrEntryNotFound", err)
	}
}

func TestEntryService_ToggleLikeOwnerAndDuplicates(t *testing.T) {
	f := newEntryFixture(t, nil)
	ctx := context.Background()

	entry, err := f.service.Create(ctx, "u1", kyoto())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := f.service.ToggleLike(ctx, entry.ID, "u1"); err != nil {
		t.Fatalf("owner ToggleLike() error = %v", err)
	}
	got, err := f.service.ToggleLike(ctx, entry.ID, "u2")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(got.Likes) != 2 {
		t.Fatalf("Likes = %v, want owner and u2", got.Likes)
	}

	got, err = f.service.ToggleLike(ctx, entry.ID, "u1")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(got.Likes) != 1 || got.Likes[0] != "u2" {
		t.Errorf("Likes after owner unlike = %v, want [u2]", got.Likes)
	}
}

func TestEntryService_ErrorsBeforeMutation(t *testing.T) {
	f := newEntryFixture(t, nil)
	ctx := context.Background()

	if _, err := f.service.ToggleLike(ctx, "missing", "u2"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("ToggleLike() on missing entry error = %v, want ErrEntryNotFound", err)
	}
	if err := f.service.Delete(ctx, "missing", "u1"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Delete() on missing entry error = %v, want ErrEntryNotFound", err)
	}
	if _, err := f.service.ToggleLike(ctx, "missing", ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous ToggleLike() error = %v, want ErrUnauthenticated", err)
	}
	if _, err := f.service.Create(ctx, "", kyoto()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous Create() error = %v, want ErrUnauthenticated", err)
	}
	if _, err := f.service.ListLiked(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous ListLiked() error = %v, want ErrUnauthenticated", err)
	}
}

func TestEntryService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateEntryInput)
		wantErr error
	}{
		{name: "missing title", mutate: func(in *CreateEntryInput) { in.Title = "  " }, wantErr: ErrInvalidInput},
		{name: "missing location", mutate: func(in *CreateEntryInput) { in.Location = "" }, wantErr: ErrInvalidInput},
		{name: "missing date", mutate: func(in *CreateEntryInput) { in.Date = "" }, wantErr: ErrInvalidInput},
		{name: "missing description", mutate: func(in *CreateEntryInput) { in.Description = "" }, wantErr: ErrInvalidInput},
		{name: "bad date", mutate: func(in *CreateEntryInput) { in.Date = "April 1st" }, wantErr: ErrInvalidInput},
		{
			name: "four images",
			mutate: func(in *CreateEntryInput) {
				in.Images = []media.Payload{testutil.PNG("a.png", 8), testutil.PNG("b.png", 8), testutil.PNG("c.png", 8), testutil.PNG("d.png", 8)}
			},
			wantErr: ErrTooManyAttachments,
		},
		{
			name: "executable",
			mutate: func(in *CreateEntryInput) {
				in.Images = []media.Payload{testutil.PNG("a.png", 8), testutil.Payload("run.exe", "image/png")}
			},
			wantErr: ErrInvalidMediaType,
		},
		{
			name: "oversized image",
			mutate: func(in *CreateEntryInput) {
				in.Images = []media.Payload{testutil.PNG("huge.png", 5_000_001)}
			},
			wantErr: ErrPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEntryFixture(t, nil)
			input := kyoto()
			tt.mutate(&input)

			if _, err := f.service.Create(context.Background(), "u1", input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}

			entries, err := f.service.ListAll(context.Background())
			if err != nil {
				t.Fatalf("ListAll() error = %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("entries after rejected Create() = %d, want 0", len(entries))
			}
			if keys := f.store.Keys(); len(keys) != 0 {
				t.Errorf("stored media after rejected Create() = %v, want none", keys)
			}
		})
	}
}

func TestEntryService_CreateCapsImagesRegardlessOfRule(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "u1", "Aiko")
	store := media.NewMemoryStore()
	policy := media.NewPolicy(store, "/uploads", media.EntryRule(5_000_000, 5))
	service := NewEntryService(repository.NewEntryRepository(db), policy, &recordingCleaner{}, nil, zap.NewNop().Sugar())

	input := kyoto()
	input.Images = []media.Payload{testutil.PNG("a.png", 8), testutil.PNG("b.png", 8), testutil.PNG("c.png", 8), testutil.PNG("d.png", 8)}

	if _, err := service.Create(context.Background(), "u1", input); !errors.Is(err, ErrTooManyAttachments) {
		t.Fatalf("Create() error = %v, want %v", err, ErrTooManyAttachments)
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Errorf("stored media = %v, want none", keys)
	}
}

func TestEntryService_CreateWithImagesAndDelete(t *testing.T) {
	f := newEntryFixture(t, nil)
	ctx := context.Background()

	input := kyoto()
	input.Date = "2024-04-01T09:30:00Z"
	input.Images = []media.Payload{testutil.PNG("a.png", 16), testutil.PNG("b.png", 16), testutil.Payload("c.gif", "image/gif")}

	entry, err := f.service.Create(ctx, "u1", input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(entry.Images) != 3 {
		t.Fatalf("Images = %v, want 3 references", entry.Images)
	}
	if len(f.store.Keys()) != 3 {
		t.Errorf("stored keys = %v, want 3", f.store.Keys())
	}

	if err := f.service.Delete(ctx, entry.ID, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(f.cleaner.requests) != 1 {
		t.Fatalf("cleanup requests = %d, want 1", len(f.cleaner.requests))
	}
	req := f.cleaner.requests[0]
	if len(req.Refs) != 3 || req.Refs[0] != entry.Images[0] {
		t.Errorf("cleanup refs = %v, want %v", req.Refs, entry.Images)
	}
}

func TestEntryService_ListLiked(t *testing.T) {
	f := newEntryFixture(t, nil)
	ctx := context.Background()

	first, err := f.service.Create(ctx, "u1", kyoto())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.service.Create(ctx, "u1", kyoto()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.service.ToggleLike(ctx, first.ID, "u2"); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	liked, err := f.service.ListLiked(ctx, "u2")
	if err != nil {
		t.Fatalf("ListLiked() error = %v", err)
	}
	if len(liked) != 1 || liked[0].ID != first.ID {
		t.Errorf("ListLiked() = %d entries, want only %s", len(liked), first.ID)
	}
}

func TestEntryService_CacheInvalidatedOnToggle(t *testing.T) {
	server := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newEntryFixture(t, cache.NewEntryCache(client, time.Minute, 5*time.Second))
	ctx := context.Background()

	entry, err := f.service.Create(ctx, "u1", kyoto())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.service.Get(ctx, entry.ID); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !server.Exists("entry:" + entry.ID) {
		t.Fatal("Get() did not populate the cache")
	}

	if _, err := f.service.ToggleLike(ctx, entry.ID, "u2"); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if server.Exists("entry:" + entry.ID) {
		t.Error("ToggleLike() left a cached copy")
	}

	got, err := f.service.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.LikedBy("u2") {
		t.Errorf("Get() after toggle Likes = %v, want u2 present", got.Likes)
	}
	if server.Exists("entry:" + entry.ID) {
		t.Error("Get() repopulated the cache while the dirty marker was set")
	}

	server.FastForward(6 * time.Second)
	cached, err := f.service.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cached.OwnerID() != "u1" || !cached.LikedBy("u2") {
		t.Errorf("cached entry owner = %q likes = %v", cached.OwnerID(), cached.Likes)
	}
}

func TestParseVisitDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "2024-04-01", want: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{raw: " 2024-04-01 ", want: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "2024-04-01T09:30:00Z", want: time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)},
		{raw: "01/04/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseVisitDate(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseVisitDate() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVisitDate() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseVisitDate() = %v, want %v", got, tt.want)
			}
		})
	}
}
