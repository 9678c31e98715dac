package usecase

import (
	"context"
	"errors"
	"fmt"

	authdomain "medbs-backend/internal/auth/domain"
	"medbs-backend/internal/auth/repository"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")
)

// AuthUsecase authenticates API callers and manages their push devices.
// Session issuance lives in the account service; this side only verifies.
type AuthUsecase interface {
	// ValidateToken verifies an HS256 bearer token and loads its user.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error)

	RegisterDevice(ctx context.Context, userID, token, deviceInfo string) error
	UnregisterDevice(ctx context.Context, userID, token string) error
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo     repository.UserRepository
	fcmTokenRepo repository.FCMTokenRepository
	jwtSecret    []byte
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, fcmTokenRepo repository.FCMTokenRepository, jwtSecret string) AuthUsecase {
	return &authUsecase{
		userRepo:     userRepo,
		fcmTokenRepo: fcmTokenRepo,
		jwtSecret:    []byte(jwtSecret),
	}
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (u *authUsecase) RegisterDevice(ctx context.Context, userID, token, deviceInfo string) error {
	return u.fcmTokenRepo.SaveToken(ctx, userID, token, deviceInfo)
}

func (u *authUsecase) UnregisterDevice(ctx context.Context, userID, token string) error {
	return u.fcmTokenRepo.DeleteUserToken(ctx, userID, token)
}
