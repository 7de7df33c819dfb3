package authapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "authkeeper.v1.Auth"

// Full method names.
const (
	MethodLogin           = "/" + ServiceName + "/Login"
	MethodRegister        = "/" + ServiceName + "/Register"
	MethodRefresh         = "/" + ServiceName + "/Refresh"
	MethodForgotPassword  = "/" + ServiceName + "/ForgotPassword"
	MethodResetPassword   = "/" + ServiceName + "/ResetPassword"
	MethodActivateAccount = "/" + ServiceName + "/ActivateAccount"
	MethodLogout          = "/" + ServiceName + "/Logout"
	MethodMe              = "/" + ServiceName + "/Me"
)

// AuthServer is the server API of the Auth service.
type AuthServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Register(context.Context, *RegisterRequest) (*emptypb.Empty, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	ForgotPassword(context.Context, *ForgotPasswordRequest) (*emptypb.Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*emptypb.Empty, error)
	ActivateAccount(context.Context, *ActivateAccountRequest) (*emptypb.Empty, error)
	Logout(context.Context, *LogoutRequest) (*emptypb.Empty, error)
	Me(context.Context, *emptypb.Empty) (*MeResponse, error)
}

// UnimplementedAuthServer returns Unimplemented for every method.
type UnimplementedAuthServer struct{}

func (UnimplementedAuthServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedAuthServer) Register(context.Context, *RegisterRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}

func (UnimplementedAuthServer) Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}

func (UnimplementedAuthServer) ForgotPassword(context.Context, *ForgotPasswordRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ForgotPassword not implemented")
}

func (UnimplementedAuthServer) ResetPassword(context.Context, *ResetPasswordRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetPassword not implemented")
}

func (UnimplementedAuthServer) ActivateAccount(context.Context, *ActivateAccountRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ActivateAccount not implemented")
}

func (UnimplementedAuthServer) Logout(context.Context, *LogoutRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}

func (UnimplementedAuthServer) Me(context.Context, *emptypb.Empty) (*MeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Me not implemented")
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed method to a grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(AuthServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc of the Auth service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, AuthServer.Login)},
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, AuthServer.Register)},
		{MethodName: "Refresh", Handler: unaryHandler(MethodRefresh, AuthServer.Refresh)},
		{MethodName: "ForgotPassword", Handler: unaryHandler(MethodForgotPassword, AuthServer.ForgotPassword)},
		{MethodName: "ResetPassword", Handler: unaryHandler(MethodResetPassword, AuthServer.ResetPassword)},
		{MethodName: "ActivateAccount", Handler: unaryHandler(MethodActivateAccount, AuthServer.ActivateAccount)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, AuthServer.Logout)},
		{MethodName: "Me", Handler: unaryHandler(MethodMe, AuthServer.Me)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth.proto",
}
