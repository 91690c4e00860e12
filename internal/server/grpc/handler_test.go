package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ---- fakes ----

type fakeUsers struct {
	pair   *services.TokenPair
	err    error
	gotReq services.RegisterRequest
	gotID  string
	n      int64
}

func (f *fakeUsers) Register(ctx context.Context, req services.RegisterRequest) (*services.TokenPair, error) {
	f.gotReq = req
	return f.pair, f.err
}
func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.pair, f.err
}
func (f *fakeUsers) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return f.pair, f.err
}
func (f *fakeUsers) Revoke(ctx context.Context, refreshToken string) error {
	return f.err
}
func (f *fakeUsers) RevokeAll(ctx context.Context, userID string) (int64, error) {
	f.gotID = userID
	return f.n, f.err
}

var testPair = &services.TokenPair{AccessToken: "a", RefreshToken: "r", AccessTokenExpiresAt: time.Unix(100, 0)}

func TestRegister_Success(t *testing.T) {
	u := &fakeUsers{pair: testPair}
	s := NewGRPCServer("", nopLogger{}, u, &fakeParser{})

	resp, err := s.Register(context.Background(), &RegisterRequest{
		Email: "a@b.c", Password: "p", FirstName: "A", LastName: "B", BirthDate: "1990-05-17",
	})
	require.NoError(t, err)
	assert.Equal(t, &TokenResponse{AccessToken: "a", RefreshToken: "r", AccessTokenExpiresAt: time.Unix(100, 0), TokenType: "Bearer"}, resp)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), u.gotReq.BirthDate)
	assert.Equal(t, "A", u.gotReq.FirstName)
}

func TestRegister_BadBirthDate(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{pair: testPair}, &fakeParser{})

	_, err := s.Register(context.Background(), &RegisterRequest{Email: "a@b.c", BirthDate: "17/05/1990"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrInvalidToken, codes.Unauthenticated},
		{fmt.Errorf("%w: %w", common.ErrSessionTerminated, errors.New("db down")), codes.Unauthenticated},
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{common.ErrorNotFound, codes.NotFound},
		{fmt.Errorf("%w: malformed email", common.ErrorValidation), codes.InvalidArgument},
		{errors.New("db error: boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := NewGRPCServer("", nopLogger{}, &fakeUsers{err: tt.err}, &fakeParser{})
			ctx := context.Background()

			_, err := s.Login(ctx, &LoginRequest{})
			assert.Equal(t, tt.want, status.Code(err))

			_, err = s.Refresh(ctx, &RefreshRequest{})
			assert.Equal(t, tt.want, status.Code(err))

			_, err = s.Revoke(ctx, &RevokeRequest{})
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestHandlers_InternalDetailsHidden(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{err: errors.New("db error: password=hunter2")}, &fakeParser{})

	_, err := s.Login(context.Background(), &LoginRequest{})
	st, _ := status.FromError(err)
	assert.Equal(t, "internal error", st.Message())
}

func TestRevokeAll_UsesSubject(t *testing.T) {
	u := &fakeUsers{n: 3}
	s := NewGRPCServer("", nopLogger{}, u, &fakeParser{})

	ctx := context.WithValue(context.Background(), claimsKey, &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u9"}})
	resp, err := s.RevokeAll(ctx, &RevokeAllRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Revoked)
	assert.Equal(t, "u9", u.gotID)

	_, err = s.RevokeAll(context.Background(), &RevokeAllRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestMeAndPing(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, &fakeUsers{}, &fakeParser{})

	ctx := context.WithValue(context.Background(), claimsKey, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}, Email: "a@b.c", Name: "Ann Lee",
	})
	me, err := s.Me(ctx, &MeRequest{})
	require.NoError(t, err)
	assert.Equal(t, &MeResponse{UserID: "u1", Email: "a@b.c", Name: "Ann Lee"}, me)

	_, err = s.Me(context.Background(), &MeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	pong, err := s.Ping(context.Background(), &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)
}
