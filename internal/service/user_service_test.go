package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"hashchat/internal/domain"
	"hashchat/internal/repository"
)

type denyLimiter struct {
	calls int
	last  LoginAttempt
	wait  time.Duration
}

func (d *denyLimiter) Reserve(_ context.Context, attempt LoginAttempt) time.Duration {
	d.calls++
	d.last = attempt
	return d.wait
}

type failingUserRepo struct {
	repository.UserRepository
	err error
}

func (f failingUserRepo) Create(context.Context, domain.User) error { return f.err }

func (f failingUserRepo) GetByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, f.err
}

func newTestUserService() (*UserService, *repository.MemoryUserRepository) {
	repo := repository.NewMemoryUserRepository()
	return NewUserService(zap.NewNop(), repo, NewLoginRateLimiter(LoginLimits{Window: time.Minute, Email: 100, IP: 100})), repo
}

func TestUserServiceRegister_Success(t *testing.T) {
	svc, repo := newTestUserService()

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "  Alice ",
		Email:    "Alice@Example.com",
		Password: "s3cret!",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("expected normalized identity, got %q / %q", user.Username, user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "s3cret!" {
		t.Fatalf("expected bcrypt hash to be stored")
	}

	stored, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected user stored, got %v", err)
	}
	if stored.ID != user.ID {
		t.Fatalf("expected stored id %s, got %s", user.ID, stored.ID)
	}
}

func TestUserServiceRegister_InvalidInput(t *testing.T) {
	svc, _ := newTestUserService()
	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"short username", RegisterInput{Username: "al", Email: "al@example.com", Password: "x"}},
		{"missing password", RegisterInput{Username: "alice", Email: "alice@example.com"}},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "x"}},
		{"missing email", RegisterInput{Username: "alice", Password: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUserServiceRegister_Duplicates(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "pw"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "pw"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceRegister_RepoError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewUserService(zap.NewNop(), failingUserRepo{err: boom}, nil)
	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected repo error to propagate, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, err := svc.Authenticate(ctx, " ALICE@example.com ", "pw", "")
	if err != nil {
		t.Fatalf("expected login success, got %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "pw", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "", "pw", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
}

func TestUserServiceAuthenticate_RateLimited(t *testing.T) {
	limiter := &denyLimiter{wait: 42 * time.Second}
	svc := NewUserService(zap.NewNop(), repository.NewMemoryUserRepository(), limiter)

	_, err := svc.Authenticate(context.Background(), " Alice@example.com", "pw", "10.0.0.1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	var rl *RateLimitedError
	if !errors.As(err, &rl) || rl.RetryAfter != 42*time.Second {
		t.Fatalf("expected retry after 42s, got %v", err)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected limiter consulted once, got %d", limiter.calls)
	}
	if limiter.last.Email != "alice@example.com" || limiter.last.ClientIP != "10.0.0.1" {
		t.Fatalf("unexpected attempt passed to limiter: %+v", limiter.last)
	}
}

func TestUserServiceAuthenticate_RepoError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewUserService(zap.NewNop(), failingUserRepo{err: boom}, nil)
	if _, err := svc.Authenticate(context.Background(), "alice@example.com", "pw", ""); !errors.Is(err, boom) {
		t.Fatalf("expected repo error to propagate, got %v", err)
	}
}
