package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "bankauth.v1.AuthService"

// Full method names, as seen by interceptors.
const (
	MethodRegister  = "/" + serviceName + "/Register"
	MethodLogin     = "/" + serviceName + "/Login"
	MethodRefresh   = "/" + serviceName + "/Refresh"
	MethodRevoke    = "/" + serviceName + "/Revoke"
	MethodRevokeAll = "/" + serviceName + "/RevokeAll"
	MethodMe        = "/" + serviceName + "/Me"
	MethodPing      = "/" + serviceName + "/Ping"
)

// AuthServiceServer is the server API of bankauth.v1.AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*TokenResponse, error)
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenResponse, error)
	Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error)
	RevokeAll(context.Context, *RevokeAllRequest) (*RevokeAllResponse, error)
	Me(context.Context, *MeRequest) (*MeResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// AuthServiceDesc describes the service for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, AuthServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(MethodRefresh, AuthServiceServer.Refresh)},
		{MethodName: "Revoke", Handler: unaryHandler(MethodRevoke, AuthServiceServer.Revoke)},
		{MethodName: "RevokeAll", Handler: unaryHandler(MethodRevokeAll, AuthServiceServer.RevokeAll)},
		{MethodName: "Me", Handler: unaryHandler(MethodMe, AuthServiceServer.Me)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, AuthServiceServer.Ping)},
	},
	Streams: []grpc.StreamDesc{},
}

// unaryHandler adapts a typed service method to the untyped grpc handler
// signature, running the interceptor chain when there is one.
func unaryHandler[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthClient calls bankauth.v1.AuthService over a client connection using
// the JSON codec.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *AuthClient, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c, MethodRegister, in, opts...)
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c, MethodLogin, in, opts...)
}

func (c *AuthClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c, MethodRefresh, in, opts...)
}

func (c *AuthClient) Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*RevokeResponse, error) {
	return invoke[RevokeResponse](ctx, c, MethodRevoke, in, opts...)
}

func (c *AuthClient) RevokeAll(ctx context.Context, in *RevokeAllRequest, opts ...grpc.CallOption) (*RevokeAllResponse, error) {
	return invoke[RevokeAllResponse](ctx, c, MethodRevokeAll, in, opts...)
}

func (c *AuthClient) Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*MeResponse, error) {
	return invoke[MeResponse](ctx, c, MethodMe, in, opts...)
}

func (c *AuthClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c, MethodPing, in, opts...)
}
