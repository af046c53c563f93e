package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/coaching-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/coaching-platform/internal/lib/password"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestRegister(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
		return user.Email == "test@example.com" &&
			user.Username == "testuser" &&
			user.PasswordHash != "" &&
			user.PasswordHash != "password123" &&
			user.Role == "user"
	})).Return("some-uuid-string", nil).Once()

	svc := auth.New(repo, customjwt.NewJWTMaker("secret", time.Hour))
	uid, err := svc.Register(context.Background(), "test@example.com", "testuser", "password123")
	require.NoError(t, err)
	assert.Equal(t, "some-uuid-string", uid)
	repo.AssertExpectations(t)
}

func TestRegister_RepoError(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("RegisterUser", mock.Anything, mock.Anything).Return("", errors.New("duplicate username"))

	svc := auth.New(repo, customjwt.NewJWTMaker("secret", time.Hour))
	_, err := svc.Register(context.Background(), "test@example.com", "testuser", "password123")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)

	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
		UUID:         "uid-1",
		Username:     "testuser",
		PasswordHash: hash,
		Role:         "user",
	}, nil)

	maker := customjwt.NewJWTMaker("secret", time.Hour)
	svc := auth.New(repo, maker)

	token, role, err := svc.Login(context.Background(), "testuser", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user", role)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "uid-1", claims.UserUID)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)

	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "testuser").Return(&models.User{
		Username:     "testuser",
		PasswordHash: hash,
	}, nil)

	svc := auth.New(repo, customjwt.NewJWTMaker("secret", time.Hour))
	_, _, err = svc.Login(context.Background(), "testuser", "wrongpassword")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UserNotFound(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, errors.New("user not found"))

	svc := auth.New(repo, customjwt.NewJWTMaker("secret", time.Hour))
	_, _, err := svc.Login(context.Background(), "ghost", "password123")
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	maker := customjwt.NewJWTMaker("secret", time.Hour)
	svc := auth.New(new(UserRepoMock), maker)

	token, err := maker.GenerateToken("testuser", "user", "uid-1")
	require.NoError(t, err)

	user, role, valid, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "uid-1", user.UUID)
	assert.Equal(t, "user", role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	otherMaker := customjwt.NewJWTMaker("other-secret", time.Hour)
	token, err := otherMaker.GenerateToken("testuser", "user", "uid-1")
	require.NoError(t, err)

	svc := auth.New(new(UserRepoMock), customjwt.NewJWTMaker("secret", time.Hour))
	_, _, valid, err := svc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
	assert.False(t, valid)
}

func TestValidateToken_Expired(t *testing.T) {
	maker := customjwt.NewJWTMaker("secret", -time.Minute)
	token, err := maker.GenerateToken("testuser", "user", "uid-1")
	require.NoError(t, err)

	svc := auth.New(new(UserRepoMock), maker)
	_, _, valid, err := svc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
	assert.False(t, valid)
}
