package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"

	"github.com/dtroode/authkeeper/internal/api/grpc/authapi"
	"github.com/dtroode/authkeeper/internal/api/grpc/handler"
	"github.com/dtroode/authkeeper/internal/api/grpc/middleware"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// AuthService is what the router needs from the account service.
type AuthService interface {
	handler.AuthService
	middleware.Authenticator
}

// MetricsInterceptor provides the request metrics interceptor.
type MetricsInterceptor interface {
	UnaryServerInterceptor() grpc.UnaryServerInterceptor
}

// protectedMethods require a valid access token.
var protectedMethods = map[string]struct{}{
	authapi.MethodLogout: {},
	authapi.MethodMe:     {},
}

// Router builds the gRPC server of the Auth service.
type Router struct {
	authService    AuthService
	metrics        MetricsInterceptor
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates a new Router. metrics may be nil.
func New(
	authService AuthService,
	metrics MetricsInterceptor,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		metrics:        metrics,
		contextManager: contextManager,
		logger:         logger,
	}
}

func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	_, ok := protectedMethods[c.FullMethod()]
	return ok
}

// Register creates the server with its interceptor chain and registers the
// Auth service on it.
func (r *Router) Register(opts ...grpc.ServerOption) *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger)
	recovering := middleware.NewRecovery(r.logger)

	unary := []grpc.UnaryServerInterceptor{
		recovery.UnaryServerInterceptor(recovering.Option()),
	}
	if r.metrics != nil {
		unary = append(unary, r.metrics.UnaryServerInterceptor())
	}
	unary = append(unary,
		logging.HandleGRPC,
		selector.UnaryServerInterceptor(
			auth.UnaryServerInterceptor(authenticate.AuthFunc),
			selector.MatchFunc(requiresAuth),
		),
	)

	opts = append(opts, grpc.ChainUnaryInterceptor(unary...))
	s := grpc.NewServer(opts...)

	authapi.RegisterAuthServer(s, handler.NewAuth(r.authService, r.contextManager, r.logger))

	return s
}
