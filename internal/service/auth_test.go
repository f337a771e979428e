package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

const testJWTSecret = "test-secret"

func newAuthTestEnv() (*AuthService, *mockUserRepo, *mockNotificationRepo) {
	userRepo := newMockUserRepo()
	notifyRepo := newMockNotificationRepo()
	notifySvc := NewNotificationService(notifyRepo, nil, discardLogger())
	return NewAuthService(userRepo, notifySvc, testJWTSecret, time.Hour), userRepo, notifyRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, notifyRepo := newAuthTestEnv()
	ctx := context.Background()

	req := dto.RegisterRequest{
		Email:    "ahmed@example.com",
		Password: "correct-horse",
		FullName: "Ahmed Hassan",
		Phone:    "01012345678",
	}
	resp, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.RoleUser, resp.User.Role)

	// Registration greets the new user.
	assert.Len(t, notifyRepo.notifications, 1)

	login, err := svc.Login(ctx, dto.LoginRequest{Email: req.Email, Password: req.Password})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	token, err := jwt.Parse(login.Token, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, string(model.RoleUser), claims["role"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthTestEnv()
	ctx := context.Background()

	req := dto.RegisterRequest{
		Email:    "sara@example.com",
		Password: "correct-horse",
		FullName: "Sara Ali",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginRejections(t *testing.T) {
	svc, _, _ := newAuthTestEnv()
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, dto.RegisterRequest{
		Email:    "omar@example.com",
		Password: "correct-horse",
		FullName: "Omar Farouk",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "omar@example.com", Password: "wrong-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc, _, _ := newAuthTestEnv()
	ctx := context.Background()

	resp, err := svc.Register(ctx, dto.RegisterRequest{
		Email:    "mona@example.com",
		Password: "correct-horse",
		FullName: "Mona Zaki",
	})
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "mona@example.com", profile.Email)

	_, err = svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
