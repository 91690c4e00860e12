package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/cryptox"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "S3cure!pass"

var cheapArgon2 = cryptox.Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newUserFixture(t *testing.T) (*UserService, *tokenFixture) {
	t.Helper()
	f := newTokenFixture(t)
	s, err := NewUserService(f.manager, f.svc, cryptox.NewArgon2(cheapArgon2), nil)
	require.NoError(t, err)
	return s, f
}

func register(t *testing.T, s *UserService, email string) *TokenPair {
	t.Helper()
	pair, err := s.Register(context.Background(), RegisterRequest{
		Email:     email,
		Password:  goodPassword,
		FirstName: " Ann ",
		LastName:  "Lee",
		BirthDate: time.Date(1991, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return pair
}

func TestRegister_RefreshReplayScenario(t *testing.T) {
	s, _ := newUserFixture(t)
	ctx := context.Background()

	first := register(t, s, "ann@example.com")

	second, err := s.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	_, err = s.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRegister_StoresProfile(t *testing.T) {
	s, f := newUserFixture(t)
	register(t, s, "Ann@Example.com")

	u, err := f.manager.Users(nil).GetUserByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.FirstName)
	assert.Equal(t, "Ann Lee", u.DisplayName())
	assert.NotEqual(t, goodPassword, u.PasswordHash)
}

func TestRegister_Rejections(t *testing.T) {
	s, _ := newUserFixture(t)
	register(t, s, "ann@example.com")

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"duplicate email", RegisterRequest{Email: "ANN@example.com", Password: goodPassword}, common.ErrorAlreadyExists},
		{"malformed email", RegisterRequest{Email: "not-an-email", Password: goodPassword}, common.ErrorValidation},
		{"display name form", RegisterRequest{Email: "Ann <ann2@example.com>", Password: goodPassword}, common.ErrorValidation},
		{"short password", RegisterRequest{Email: "b@example.com", Password: "A1!a"}, common.ErrorValidation},
		{"no symbol", RegisterRequest{Email: "b@example.com", Password: "Abcdef12"}, common.ErrorValidation},
		{"no upper", RegisterRequest{Email: "b@example.com", Password: "abcdef1!"}, common.ErrorValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin_SixLoginsKeepFiveNewest(t *testing.T) {
	s, f := newUserFixture(t)
	ctx := context.Background()

	reg := register(t, s, "ann@example.com")
	raws := []string{reg.RefreshToken}
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
		pair, err := s.Login(ctx, "ann@example.com", goodPassword)
		require.NoError(t, err)
		raws = append(raws, pair.RefreshToken)
	}

	u, err := f.manager.Users(nil).GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	active, err := f.manager.RefreshTokens(nil).FindActive(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, active, common.MaxActiveTokensPerUser)

	_, err = s.Refresh(ctx, raws[0])
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = s.Refresh(ctx, raws[1])
	assert.NoError(t, err)
}

func TestLogin_Failures(t *testing.T) {
	s, _ := newUserFixture(t)
	register(t, s, "ann@example.com")

	_, err := s.Login(context.Background(), "ann@example.com", "Wrong!pass1")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(context.Background(), "nobody@example.com", goodPassword)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

type failingUsersRepo struct {
	users.Repository
}

func (failingUsersRepo) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errBoom
}

func TestLogin_StorageError(t *testing.T) {
	m := &fakeRepoManager{u: failingUsersRepo{}}
	s, err := NewUserService(m, NewTokenService(m, &fakeForge{}), cryptox.NewArgon2(cheapArgon2), nil)
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRevokeAndRefresh(t *testing.T) {
	s, _ := newUserFixture(t)
	ctx := context.Background()

	pair := register(t, s, "ann@example.com")

	require.NoError(t, s.Revoke(ctx, pair.RefreshToken))
	assert.ErrorIs(t, s.Revoke(ctx, pair.RefreshToken), common.ErrorNotFound)

	_, err := s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.Refresh(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRevokeAll_ThroughUserService(t *testing.T) {
	s, f := newUserFixture(t)
	ctx := context.Background()

	pair := register(t, s, "ann@example.com")
	_, err := s.Login(ctx, "ann@example.com", goodPassword)
	require.NoError(t, err)

	u, err := f.manager.Users(nil).GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)

	n, err := s.RevokeAll(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
