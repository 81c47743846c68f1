package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abduss/mediavault/internal/config"
	"github.com/google/uuid"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret:    "test-secret",
		AccessTokenTTL: time.Minute,
		BcryptCost:     4,
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
		Username: "someone",
	})

	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from response")
	}
	if result.User.Role != RoleStandard {
		t.Fatalf("expected standard role, got %q", result.User.Role)
	}
	if result.Token.Token == "" {
		t.Fatalf("expected access token to be issued")
	}
	if len(store.users) != 1 {
		t.Fatalf("expected user stored; got %d", len(store.users))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("initial registration returned error: %v", err)
	}

	_, err = service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "AnotherPass2!",
	})

	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "short",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "User@Example.com",
		Password: "StrongPass1!",
	})

	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if result.Token.Token == "" {
		t.Fatalf("expected access token")
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, err = service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "WrongPass99",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	_, err := service.Login(context.Background(), LoginInput{
		Email:    "missing@example.com",
		Password: "StrongPass1!",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateAccessTokenRoundTrip(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	claims, err := service.ValidateAccessToken(result.Token.Token)
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}

	if claims.UserID != result.User.ID {
		t.Fatalf("expected subject %s, got %s", result.User.ID, claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
	if claims.Role != RoleStandard {
		t.Fatalf("unexpected role claim: %s", claims.Role)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	service.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	service.nowFunc = time.Now
	_, err = service.ValidateAccessToken(result.Token.Token)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestValidateAccessTokenTampered(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	other := NewService(store, config.AuthConfig{
		TokenSecret:    "different-secret",
		AccessTokenTTL: time.Minute,
		BcryptCost:     4,
	})

	_, err = other.ValidateAccessToken(result.Token.Token)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}

// memoryStore implements userStore for tests.
type memoryStore struct {
	users map[string]User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]User)}
}

func (m *memoryStore) CreateUser(ctx context.Context, email, passwordHash, username string) (User, error) {
	if _, ok := m.users[email]; ok {
		return User{}, ErrEmailAlreadyExists
	}
	user := User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		Role:         RoleStandard,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[email] = user
	return user, nil
}

func (m *memoryStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}
