package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const birthDateLayout = "2006-01-02"

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {

	s.logger.Info(ctx, "Registration request")

	var birth time.Time
	if req.BirthDate != "" {
		var err error
		birth, err = time.Parse(birthDateLayout, req.BirthDate)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "birth_date must be YYYY-MM-DD")
		}
	}

	tokens, err := s.users.Register(ctx, services.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: birth,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return toTokenResponse(tokens), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {

	tokens, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return toTokenResponse(tokens), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*TokenResponse, error) {

	tokens, err := s.users.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return toTokenResponse(tokens), nil
}

func (s *GRPCServer) Revoke(ctx context.Context, req *RevokeRequest) (*RevokeResponse, error) {

	if err := s.users.Revoke(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &RevokeResponse{Revoked: true}, nil
}

func (s *GRPCServer) RevokeAll(ctx context.Context, req *RevokeAllRequest) (*RevokeAllResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	n, err := s.users.RevokeAll(ctx, claims.Subject)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &RevokeAllResponse{Revoked: n}, nil
}

func (s *GRPCServer) Me(ctx context.Context, req *MeRequest) (*MeResponse, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	return &MeResponse{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {

	return &PingResponse{Status: "OK"}, nil

}

func toTokenResponse(p *services.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:          p.AccessToken,
		AccessTokenExpiresAt: p.AccessTokenExpiresAt,
		RefreshToken:         p.RefreshToken,
		TokenType:            "Bearer",
	}
}

// toStatus maps service errors to gRPC status codes. Details of internal
// failures are logged, never returned.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrSessionTerminated):
		return status.Error(codes.Unauthenticated, "session terminated, please log in again")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "invalid or expired refresh token")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "invalid email or password")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
