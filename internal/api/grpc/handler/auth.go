package handler

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dtroode/authkeeper/internal/api/grpc/authapi"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/service"
)

// AuthService defines the account flows served by the handler.
type AuthService interface {
	Login(ctx context.Context, login, password string) (service.Session, error)
	Register(ctx context.Context, req service.RegisterRequest) error
	RefreshAccess(ctx context.Context, identityID uuid.UUID, refreshToken string) (model.SignedToken, error)
	Logout(ctx context.Context, identityID uuid.UUID, refreshToken string) error
	ForgotPassword(ctx context.Context, login string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ActivateAccount(ctx context.Context, activationToken string) error
	Me(ctx context.Context, identityID uuid.UUID) (service.Profile, error)
}

var _ authapi.AuthServer = (*Auth)(nil)

// Auth handles gRPC endpoints for authentication.
type Auth struct {
	authapi.UnimplementedAuthServer
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Login checks credentials and returns an access and a refresh token.
func (h *Auth) Login(ctx context.Context, req *authapi.LoginRequest) (*authapi.LoginResponse, error) {
	h.logger.Debug("Auth handler: processing login request",
		"login", req.Login)

	if req.Login == "" || req.Password == "" {
		return nil, invalidArgument("login and password are required")
	}

	session, err := h.authService.Login(ctx, req.Login, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: login failed",
			"login", req.Login,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &authapi.LoginResponse{
		User:             convertUser(session.User),
		Permissions:      session.Permissions,
		AccessToken:      session.AccessToken,
		AccessExpiresAt:  session.AccessExpiresAt,
		RefreshToken:     session.RefreshToken,
		RefreshExpiresAt: session.RefreshExpiresAt,
	}, nil
}

// Register creates a pending account. The response is the same whether or not the email was taken.
func (h *Auth) Register(ctx context.Context, req *authapi.RegisterRequest) (*emptypb.Empty, error) {
	h.logger.Debug("Auth handler: processing registration request",
		"username", req.Username)

	if err := validateRegister(req); err != nil {
		return nil, invalidRequest(err)
	}

	err := h.authService.Register(ctx, service.RegisterRequest{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.Info("Auth handler: registration failed",
			"username", req.Username,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (h *Auth) Refresh(ctx context.Context, req *authapi.RefreshRequest) (*authapi.RefreshResponse, error) {
	h.logger.Debug("Auth handler: processing token refresh request")

	if req.RefreshToken == "" {
		return nil, invalidArgument("refresh token is required")
	}

	identityID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, handleError(model.ErrUnauthenticated)
	}

	access, err := h.authService.RefreshAccess(ctx, identityID, req.RefreshToken)
	if err != nil {
		h.logger.Info("Auth handler: token refresh failed",
			"user_id", identityID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &authapi.RefreshResponse{
		AccessToken:     access.Value,
		AccessExpiresAt: access.ExpiresAt,
	}, nil
}

// ForgotPassword prepares a reset email. Unknown logins get the same empty response.
func (h *Auth) ForgotPassword(ctx context.Context, req *authapi.ForgotPasswordRequest) (*emptypb.Empty, error) {
	h.logger.Debug("Auth handler: processing forgot password request")

	if req.Login == "" {
		return nil, invalidArgument("login is required")
	}

	if err := h.authService.ForgotPassword(ctx, req.Login); err != nil {
		h.logger.Error("Auth handler: forgot password failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// ResetPassword sets a new password using a reset token.
func (h *Auth) ResetPassword(ctx context.Context, req *authapi.ResetPasswordRequest) (*emptypb.Empty, error) {
	h.logger.Debug("Auth handler: processing reset password request")

	if err := validateResetPassword(req); err != nil {
		return nil, invalidRequest(err)
	}

	if err := h.authService.ResetPassword(ctx, req.Token, req.Password); err != nil {
		h.logger.Info("Auth handler: reset password failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// ActivateAccount activates a pending account using an activation token.
func (h *Auth) ActivateAccount(ctx context.Context, req *authapi.ActivateAccountRequest) (*emptypb.Empty, error) {
	h.logger.Debug("Auth handler: processing activation request")

	if req.Token == "" {
		return nil, invalidArgument("token is required")
	}

	if err := h.authService.ActivateAccount(ctx, req.Token); err != nil {
		h.logger.Info("Auth handler: activation failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// Logout revokes a refresh token of the caller.
func (h *Auth) Logout(ctx context.Context, req *authapi.LogoutRequest) (*emptypb.Empty, error) {
	principal, ok := h.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return nil, handleError(model.ErrUnauthenticated)
	}

	if req.RefreshToken == "" {
		return nil, invalidArgument("refresh token is required")
	}

	if err := h.authService.Logout(ctx, principal.UserID, req.RefreshToken); err != nil {
		h.logger.Info("Auth handler: logout failed",
			"user_id", principal.UserID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// Me returns the caller with its current permissions.
func (h *Auth) Me(ctx context.Context, _ *emptypb.Empty) (*authapi.MeResponse, error) {
	principal, ok := h.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return nil, handleError(model.ErrUnauthenticated)
	}

	profile, err := h.authService.Me(ctx, principal.UserID)
	if err != nil {
		h.logger.Error("Auth handler: failed to get profile",
			"user_id", principal.UserID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return &authapi.MeResponse{
		User:        convertUser(profile.User),
		Permissions: profile.Permissions,
	}, nil
}

func convertUser(u model.User) *authapi.User {
	return &authapi.User{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      string(u.Status),
	}
}
