package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travel-journal/internal/repository"
	"travel-journal/internal/testutil"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(repository.NewUserRepository(testutil.NewDB(t)), "test-secret", time.Hour)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: " Aiko ", Email: "Aiko@Example.com", Password: "sakura-2024"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.User.Name != "Aiko" || registered.User.Email != "aiko@example.com" {
		t.Errorf("registered user = %+v, want trimmed name and lowercased email", registered.User)
	}
	if registered.User.PasswordHash == "sakura-2024" {
		t.Error("password stored in clear text")
	}

	userID, err := svc.ResolveToken(registered.Token)
	if err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if userID != registered.User.ID {
		t.Errorf("ResolveToken() = %q, want %q", userID, registered.User.ID)
	}

	loggedIn, err := svc.Login(ctx, LoginInput{Email: "aiko@example.com", Password: "sakura-2024"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.User.ID != registered.User.ID || loggedIn.Token == "" {
		t.Errorf("Login() = %+v, want token for %s", loggedIn, registered.User.ID)
	}

	me, err := svc.GetUserByID(ctx, registered.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if me.Email != "aiko@example.com" {
		t.Errorf("GetUserByID() email = %q", me.Email)
	}
}

func TestAuthService_Failures(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Aiko", Email: "aiko@example.com", Password: "sakura-2024"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "duplicate email",
			run: func() error {
				_, err := svc.Register(ctx, RegisterInput{Name: "Other", Email: "AIKO@example.com", Password: "password123"})
				return err
			},
			wantErr: ErrEmailExists,
		},
		{
			name: "short password",
			run: func() error {
				_, err := svc.Register(ctx, RegisterInput{Name: "Ben", Email: "ben@example.com", Password: "short"})
				return err
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "missing name",
			run: func() error {
				_, err := svc.Register(ctx, RegisterInput{Email: "ben@example.com", Password: "password123"})
				return err
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "wrong password",
			run: func() error {
				_, err := svc.Login(ctx, LoginInput{Email: "aiko@example.com", Password: "wrong-password"})
				return err
			},
			wantErr: ErrInvalidCredential,
		},
		{
			name: "unknown email",
			run: func() error {
				_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "sakura-2024"})
				return err
			},
			wantErr: ErrInvalidCredential,
		},
		{
			name: "bad token",
			run: func() error {
				_, err := svc.ResolveToken("garbage")
				return err
			},
			wantErr: ErrUnauthenticated,
		},
		{
			name: "unknown user",
			run: func() error {
				_, err := svc.GetUserByID(ctx, "nobody")
				return err
			},
			wantErr: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_ConcurrentRegisterSameEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, RegisterInput{Name: "Aiko", Email: "aiko@example.com", Password: "sakura-2024"})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrEmailExists):
			t.Errorf("Register() error = %v, want ErrEmailExists", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("successful registrations = %d, want 1", succeeded)
	}
}
