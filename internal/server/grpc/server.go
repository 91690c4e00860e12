// Package grpc exposes the token lifecycle over gRPC as
// bankauth.v1.AuthService, with JSON-encoded messages.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/bankauth/internal/logging"
	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/services"
	"google.golang.org/grpc"
)

// UserService is the account API the handlers call; *services.UserService
// implements it.
type UserService interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID string) (int64, error)
}

// TokenParser validates access tokens; *auth.Forge implements it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address string
	users   UserService
	tokens  TokenParser
	logger  logging.Logger
}

var _ AuthServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us UserService, tp TokenParser) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		tokens:  tp,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	// creates gRPC-server
	srv := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	)

	// registers service
	srv.RegisterService(&AuthServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.WithoutCancel(ctx), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
