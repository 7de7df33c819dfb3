package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// dummyPassword is hashed once and verified on logins for unknown users.
const dummyPassword = "authkeeper-timing-equalizer"

// Session is the result of a successful login.
type Session struct {
	User             model.User
	Permissions      []string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RegisterRequest contains the fields of a registration.
type RegisterRequest struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
}

// Profile is the current state of an identity.
type Profile struct {
	User        model.User
	Permissions []string
}

// Auth implements the account flows: login, registration, access refresh,
// password reset and account activation.
type Auth struct {
	userStore       model.UserStore
	permissionStore model.PermissionStore
	tokenService    *TokenService
	hasher          model.PasswordHasher
	transactor      model.Transactor
	notifier        model.Notifier
	mailer          *Mailer
	logger          *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuth(
	userStore model.UserStore,
	permissionStore model.PermissionStore,
	tokenService *TokenService,
	hasher model.PasswordHasher,
	transactor model.Transactor,
	notifier model.Notifier,
	mailer *Mailer,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:       userStore,
		permissionStore: permissionStore,
		tokenService:    tokenService,
		hasher:          hasher,
		transactor:      transactor,
		notifier:        notifier,
		mailer:          mailer,
		logger:          logger,
	}
}

// Login authenticates by username or email. Unknown users and wrong
// passwords both return model.ErrUnauthenticated.
func (a *Auth) Login(ctx context.Context, login, password string) (Session, error) {
	a.logger.Debug("Auth service: starting login", "login", login)

	user, err := a.userStore.FindByUsernameOrEmail(ctx, login, true)
	if errors.Is(err, model.ErrNotFound) {
		a.equalizeTiming(password)
		a.logger.Info("Auth service: login failed", "login", login)
		return Session{}, model.ErrUnauthenticated
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user",
			"login", login,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := a.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		a.logger.Error("Auth service: failed to verify password",
			"user_id", user.ID,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: login failed", "login", login)
		return Session{}, model.ErrUnauthenticated
	}

	if user.Status != model.UserStatusActive {
		a.logger.Info("Auth service: login of inactive account",
			"user_id", user.ID,
			"status", string(user.Status))
		return Session{}, model.ErrNotActivated
	}

	permissions, err := a.permissions(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}

	public := user.Public()

	access, err := a.tokenService.IssueAccess(public, permissions)
	if err != nil {
		a.logger.Error("Auth service: failed to issue access token",
			"user_id", user.ID,
			"error", err.Error())
		return Session{}, err
	}

	refresh, err := a.tokenService.IssueDurable(ctx,
		model.RefreshTokenRequest{User: public, Permissions: permissions}, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue refresh token",
			"user_id", user.ID,
			"error", err.Error())
		return Session{}, err
	}

	a.logger.Info("Auth service: login completed successfully", "user_id", user.ID)

	return Session{
		User:             public,
		Permissions:      permissions,
		AccessToken:      access.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// equalizeTiming spends one password verification so that unknown users
// cost the same as wrong passwords.
func (a *Auth) equalizeTiming(password string) {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash(dummyPassword)
		if err != nil {
			a.logger.Warn("Auth service: failed to prepare dummy hash", "error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash != "" {
		_, _ = a.hasher.Verify(a.dummyHash, password)
	}
}

// Register creates a PENDING account and mails an activation link. A taken
// username is reported; a taken email is not, and looks like success.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) error {
	a.logger.Debug("Auth service: starting user registration",
		"username", req.Username)

	exists, err := a.userStore.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		a.logger.Info("Auth service: username already taken", "username", req.Username)
		return &model.ConflictError{Field: "username"}
	}

	// Hash before the email check so both email branches do the same work.
	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	exists, err = a.userStore.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		a.logger.Info("Auth service: registration with taken email ignored", "username", req.Username)
		return nil
	}

	var (
		user       model.User
		activation model.SignedToken
	)
	err = a.transactor.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = a.userStore.Create(ctx, model.NewUser{
			Username:     req.Username,
			Email:        req.Email,
			DisplayName:  req.DisplayName,
			PasswordHash: hash,
			Status:       model.UserStatusPending,
		})
		if err != nil {
			return err
		}

		activation, err = a.tokenService.IssueDurable(ctx,
			model.ActivateAccountTokenRequest{UserID: user.ID, Username: user.Username}, user.ID)
		return err
	})

	var conflict *model.ConflictError
	if errors.As(err, &conflict) {
		// Lost a race with a concurrent registration.
		if conflict.Field == "email" {
			a.logger.Info("Auth service: registration with taken email ignored", "username", req.Username)
			return nil
		}
		return conflict
	}
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"username", req.Username,
			"error", err.Error())
		return fmt.Errorf("failed to create user: %w", err)
	}

	a.notify(ctx, a.mailer.Activation(user, activation.Value), user.ID)

	a.logger.Info("Auth service: user registration completed successfully",
		"user_id", user.ID)

	return nil
}

// RefreshAccess mints a new access token for identityID from a refresh
// token bound to it. The refresh token stays usable until it expires.
func (a *Auth) RefreshAccess(ctx context.Context, identityID uuid.UUID, refreshToken string) (model.SignedToken, error) {
	a.logger.Debug("Auth service: refreshing access", "user_id", identityID)

	if _, err := a.boundRefreshToken(ctx, identityID, refreshToken); err != nil {
		return model.SignedToken{}, err
	}

	user, err := a.userStore.FindByID(ctx, identityID)
	if errors.Is(err, model.ErrNotFound) {
		return model.SignedToken{}, model.ErrUnauthenticated
	}
	if err != nil {
		return model.SignedToken{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return model.SignedToken{}, model.ErrNotActivated
	}

	permissions, err := a.permissions(ctx, user.ID)
	if err != nil {
		return model.SignedToken{}, err
	}

	access, err := a.tokenService.IssueAccess(user, permissions)
	if err != nil {
		return model.SignedToken{}, err
	}

	a.logger.Info("Auth service: access refreshed successfully", "user_id", user.ID)

	return access, nil
}

// Logout revokes a refresh token bound to identityID.
func (a *Auth) Logout(ctx context.Context, identityID uuid.UUID, refreshToken string) error {
	token, err := a.boundRefreshToken(ctx, identityID, refreshToken)
	if err != nil {
		return err
	}

	err = a.tokenService.Consume(ctx, token.ID)
	if errors.Is(err, model.ErrTokenInvalid) {
		return model.ErrUnauthenticated
	}
	if err != nil {
		return err
	}

	a.logger.Info("Auth service: refresh token revoked", "user_id", identityID)
	return nil
}

func (a *Auth) boundRefreshToken(ctx context.Context, identityID uuid.UUID, refreshToken string) (model.Token, error) {
	token, _, err := a.tokenService.Resolve(ctx, refreshToken, model.PurposeRefresh)
	if errors.Is(err, model.ErrTokenInvalid) {
		return model.Token{}, model.ErrUnauthenticated
	}
	if err != nil {
		return model.Token{}, err
	}

	if *token.ForeignID != identityID {
		a.logger.Warn("Auth service: refresh token presented by another identity",
			"user_id", identityID,
			"token_id", token.ID)
		return model.Token{}, model.ErrUnauthenticated
	}

	return token, nil
}

// ForgotPassword mails a reset link. Unknown users are ignored silently.
func (a *Auth) ForgotPassword(ctx context.Context, login string) error {
	a.logger.Debug("Auth service: password reset requested", "login", login)

	user, err := a.userStore.FindByUsernameOrEmail(ctx, login, false)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Info("Auth service: password reset for unknown user ignored", "login", login)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	reset, err := a.tokenService.IssueDurable(ctx,
		model.ResetPasswordTokenRequest{UserID: user.ID, Username: user.Username}, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue reset token",
			"user_id", user.ID,
			"error", err.Error())
		return err
	}

	a.notify(ctx, a.mailer.ResetPassword(user, reset.Value), user.ID)

	a.logger.Info("Auth service: password reset prepared", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password and consumes the reset token in one
// transaction.
func (a *Auth) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	token, _, err := a.tokenService.Resolve(ctx, resetToken, model.PurposeResetPassword)
	if err != nil {
		return err
	}

	user, err := a.userStore.FindByID(ctx, *token.ForeignID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: reset token owner not found", "token_id", token.ID)
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = a.transactor.RunInTx(ctx, func(ctx context.Context) error {
		if err := a.tokenService.Consume(ctx, token.ID); err != nil {
			return err
		}
		return a.userStore.UpdateFields(ctx, user.ID, model.UserUpdate{PasswordHash: &hash})
	})
	if err != nil {
		if errors.Is(err, model.ErrTokenInvalid) {
			return model.ErrTokenInvalid
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	a.logger.Info("Auth service: password reset completed successfully", "user_id", user.ID)
	return nil
}

// ActivateAccount activates a PENDING account and consumes the activation
// token in one transaction. An already active account is rejected with
// model.ErrAlreadyActivated and the token is left untouched.
func (a *Auth) ActivateAccount(ctx context.Context, activationToken string) error {
	token, _, err := a.tokenService.Resolve(ctx, activationToken, model.PurposeActivateAccount)
	if err != nil {
		return err
	}

	user, err := a.userStore.FindByID(ctx, *token.ForeignID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: activation token owner not found", "token_id", token.ID)
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status == model.UserStatusActive {
		a.logger.Info("Auth service: account already activated", "user_id", user.ID)
		return model.ErrAlreadyActivated
	}

	active := model.UserStatusActive
	err = a.transactor.RunInTx(ctx, func(ctx context.Context) error {
		if err := a.tokenService.Consume(ctx, token.ID); err != nil {
			return err
		}
		return a.userStore.UpdateFields(ctx, user.ID, model.UserUpdate{Status: &active})
	})
	if err != nil {
		if errors.Is(err, model.ErrTokenInvalid) {
			return model.ErrTokenInvalid
		}
		return fmt.Errorf("failed to activate account: %w", err)
	}

	a.logger.Info("Auth service: account activated successfully", "user_id", user.ID)
	return nil
}

// Authenticate verifies an access token and returns the principal it carries.
func (a *Auth) Authenticate(_ context.Context, accessToken string) (model.Principal, error) {
	claims, err := a.tokenService.Authenticate(accessToken)
	if err != nil {
		return model.Principal{}, err
	}

	principal := model.Principal{UserID: claims.Subject}
	if claims.Identity != nil {
		principal.Permissions = claims.Identity.Permissions
	}
	return principal, nil
}

// Me returns the identity with its current permissions.
func (a *Auth) Me(ctx context.Context, identityID uuid.UUID) (Profile, error) {
	user, err := a.userStore.FindByID(ctx, identityID)
	if errors.Is(err, model.ErrNotFound) {
		return Profile{}, model.ErrUnauthenticated
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get user: %w", err)
	}

	permissions, err := a.permissions(ctx, user.ID)
	if err != nil {
		return Profile{}, err
	}

	return Profile{User: user, Permissions: permissions}, nil
}

func (a *Auth) permissions(ctx context.Context, id uuid.UUID) ([]string, error) {
	permissions, err := a.permissionStore.FindAllByIdentityID(ctx, id)
	if err != nil {
		a.logger.Error("Auth service: failed to get permissions",
			"user_id", id,
			"error", err.Error())
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	if permissions == nil {
		permissions = []string{}
	}
	return permissions, nil
}

// notify hands msg to the notifier. Delivery failures are logged and
// never fail the flow.
func (a *Auth) notify(ctx context.Context, msg model.Message, userID uuid.UUID) {
	if err := a.notifier.Send(ctx, msg); err != nil {
		a.logger.Error("Auth service: failed to send email",
			"user_id", userID,
			"kind", string(msg.Kind),
			"message_id", msg.ID,
			"error", err.Error())
	}
}
