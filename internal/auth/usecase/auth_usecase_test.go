package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "medbs-backend/internal/auth/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type fakeUsers map[string]*authdomain.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*authdomain.User, error) {
	return f[id], nil
}

type fakeTokens struct {
	saved   map[string]string
	removed []string
}

func (f *fakeTokens) SaveToken(_ context.Context, userID, token, _ string) error {
	f.saved[token] = userID
	return nil
}

func (f *fakeTokens) GetTokensByUserID(context.Context, string) ([]authdomain.FCMToken, error) {
	return nil, nil
}

func (f *fakeTokens) DeleteToken(_ context.Context, token string) error {
	f.removed = append(f.removed, token)
	return nil
}

func (f *fakeTokens) DeleteUserToken(_ context.Context, userID, token string) error {
	if f.saved[token] == userID {
		delete(f.saved, token)
	}
	return nil
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()
	uc := NewAuthUsecase(fakeUsers{"u1": {ID: "u1", Name: "Asha"}}, &fakeTokens{saved: map[string]string{}}, secret)
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("valid", func(t *testing.T) {
		user, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"userId": "u1", "exp": exp}))
		require.NoError(t, err)
		assert.Equal(t, "Asha", user.Name)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"userId": "u1", "exp": time.Now().Add(-time.Minute).Unix()}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"userId": "u1", "exp": exp}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"userId": "u1", "exp": exp}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing claim", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": exp}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.ValidateToken(ctx, sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"userId": "ghost", "exp": exp}))
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestDevices(t *testing.T) {
	ctx := context.Background()
	tokens := &fakeTokens{saved: map[string]string{}}
	uc := NewAuthUsecase(fakeUsers{}, tokens, secret)

	require.NoError(t, uc.RegisterDevice(ctx, "u1", "tok-a", "pixel"))
	assert.Equal(t, "u1", tokens.saved["tok-a"])

	require.NoError(t, uc.UnregisterDevice(ctx, "u2", "tok-a"))
	assert.Contains(t, tokens.saved, "tok-a", "only the owner can remove a device")

	require.NoError(t, uc.UnregisterDevice(ctx, "u1", "tok-a"))
	assert.NotContains(t, tokens.saved, "tok-a")
}
