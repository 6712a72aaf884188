package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Eoic/Shelf/internal/domains/user"
	"github.com/Eoic/Shelf/pkg/jwt"
)

// fakeUserRepo - in-memory Repository, index theo id/username/email
type fakeUserRepo struct {
	byID map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]*user.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	stored := *u
	r.byID[u.ID] = &stored
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByUsernameOrEmail(ctx context.Context, login string) (*user.User, error) {
	for _, u := range r.byID {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *fakeUserRepo) UpdatePreferences(ctx context.Context, id uuid.UUID, preferences map[string]interface{}) error {
	u, ok := r.byID[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Preferences = preferences
	return nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range r.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func newUserFixture() (*fakeUserRepo, user.Service) {
	repo := newFakeUserRepo()
	manager := jwt.NewManager("test-secret", 30*time.Minute, 72*time.Hour)
	return repo, NewUserService(repo, manager, 30*time.Minute)
}

func validRegisterRequest() user.RegisterRequest {
	return user.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	}
}

func TestRegister(t *testing.T) {
	repo, svc := newUserFixture()

	dto, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	assert.Equal(t, "alice", dto.Username)
	assert.Equal(t, "alice@example.com", dto.Email)
	assert.True(t, dto.IsActive)
	assert.NotNil(t, dto.Preferences)

	// Password được hash bằng bcrypt, không bao giờ lưu plaintext
	stored := repo.byID[dto.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse-battery", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse-battery")))
}

func TestRegisterDuplicates(t *testing.T) {
	_, svc := newUserFixture()

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	dupUsername := validRegisterRequest()
	dupUsername.Email = "other@example.com"
	_, err = svc.Register(context.Background(), dupUsername)
	assert.ErrorIs(t, err, user.ErrUsernameAlreadyExists)

	dupEmail := validRegisterRequest()
	dupEmail.Username = "bob"
	_, err = svc.Register(context.Background(), dupEmail)
	assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	_, svc := newUserFixture()

	tests := []struct {
		name   string
		mutate func(*user.RegisterRequest)
	}{
		{"short username", func(r *user.RegisterRequest) { r.Username = "ab" }},
		{"username with spaces", func(r *user.RegisterRequest) { r.Username = "a b c" }},
		{"bad email", func(r *user.RegisterRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *user.RegisterRequest) { r.Password = "1234567" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegisterRequest()
			tt.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	_, svc := newUserFixture()

	registered, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	// Login bằng username
	resp, err := svc.Login(context.Background(), user.LoginRequest{
		Username: "alice",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, registered.ID, resp.User.ID)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	// Login bằng email cũng được
	_, err = svc.Login(context.Background(), user.LoginRequest{
		Username: "alice@example.com",
		Password: "correct-horse-battery",
	})
	assert.NoError(t, err)
}

func TestLoginFailures(t *testing.T) {
	repo, svc := newUserFixture()

	registered, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	// Sai password và user không tồn tại trả về cùng một error
	_, err = svc.Login(context.Background(), user.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), user.LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	repo.byID[registered.ID].IsActive = false
	_, err = svc.Login(context.Background(), user.LoginRequest{Username: "alice", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, user.ErrUserInactive)
}

func TestRefreshToken(t *testing.T) {
	repo, svc := newUserFixture()

	registered, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), user.LoginRequest{
		Username: "alice",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, registered.ID, refreshed.User.ID)

	// Access token không dùng được ở refresh endpoint
	_, err = svc.RefreshToken(context.Background(), login.AccessToken)
	assert.ErrorIs(t, err, user.ErrInvalidToken)

	_, err = svc.RefreshToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, user.ErrInvalidToken)

	// Account bị deactivate thì refresh cũng bị chặn
	repo.byID[registered.ID].IsActive = false
	_, err = svc.RefreshToken(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, user.ErrUserInactive)
}

func TestUpdatePreferences(t *testing.T) {
	_, svc := newUserFixture()

	registered, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	prefs := map[string]interface{}{"theme": "dark", "page_size": float64(50)}
	dto, err := svc.UpdatePreferences(context.Background(), registered.ID, user.UpdatePreferencesRequest{
		Preferences: prefs,
	})
	require.NoError(t, err)
	assert.Equal(t, prefs, dto.Preferences)

	// nil preferences bị reject - replace semantics yêu cầu object tường minh
	_, err = svc.UpdatePreferences(context.Background(), registered.ID, user.UpdatePreferencesRequest{})
	assert.Error(t, err)
}
