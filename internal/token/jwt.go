package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

// Claims is the JWT payload. Identity is present for access and refresh
// tokens, Username for reset password and activation tokens.
type Claims struct {
	jwt.RegisteredClaims
	Purpose  model.Purpose         `json:"for"`
	Identity *model.IdentityClaims `json:"usr,omitempty"`
	Username string                `json:"unm,omitempty"`
}

// Options configures a JWT token manager.
type Options struct {
	Secret    string
	Issuer    string
	Lifetimes map[model.Purpose]time.Duration
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	issuer    string
	lifetimes map[model.Purpose]time.Duration
	now       func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a new JWT token manager. Every purpose needs a positive lifetime.
func NewJWT(opts Options) (*JWT, error) {
	if opts.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	lifetimes := make(map[model.Purpose]time.Duration, 4)
	for _, p := range []model.Purpose{
		model.PurposeAccess,
		model.PurposeRefresh,
		model.PurposeResetPassword,
		model.PurposeActivateAccount,
	} {
		ttl := opts.Lifetimes[p]
		if ttl <= 0 {
			return nil, fmt.Errorf("lifetime for %s tokens is not configured", p)
		}
		lifetimes[p] = ttl
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &JWT{
		secretKey: []byte(opts.Secret),
		issuer:    opts.Issuer,
		lifetimes: lifetimes,
		now:       now,
	}, nil
}

// Lifetime returns the configured lifetime of tokens with purpose p.
func (j *JWT) Lifetime(p model.Purpose) time.Duration {
	return j.lifetimes[p]
}

// Create signs a token for req. IssuedAt and ExpiresAt are stamped from the
// clock and the lifetime configured for the request purpose.
func (j *JWT) Create(req model.TokenRequest) (model.SignedToken, error) {
	var claims Claims

	switch r := req.(type) {
	case model.AccessTokenRequest:
		claims.Subject = r.User.ID.String()
		claims.Identity = model.NewIdentityClaims(r.User, r.Permissions)
	case model.RefreshTokenRequest:
		claims.Subject = r.User.ID.String()
		claims.Identity = model.NewIdentityClaims(r.User, r.Permissions)
	case model.ResetPasswordTokenRequest:
		claims.Subject = r.UserID.String()
		claims.Username = r.Username
	case model.ActivateAccountTokenRequest:
		claims.Subject = r.UserID.String()
		claims.Username = r.Username
	default:
		return model.SignedToken{}, fmt.Errorf("unsupported token request %T", req)
	}

	purpose := req.Purpose()
	now := j.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(j.lifetimes[purpose]))

	claims.Purpose = purpose
	claims.ID = uuid.NewString()
	claims.Issuer = j.issuer
	claims.IssuedAt = issuedAt
	claims.ExpiresAt = expiresAt

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return model.SignedToken{}, fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}

	return model.SignedToken{
		Value:     value,
		ID:        claims.ID,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Verify checks the signature, expiry and purpose of value.
func (j *JWT) Verify(value string, expected model.Purpose) (model.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrTokenSignature, err)
	}
	if !token.Valid {
		return model.TokenClaims{}, model.ErrTokenSignature
	}

	if claims.Purpose != expected {
		return model.TokenClaims{}, fmt.Errorf("%w: got %s, want %s", model.ErrTokenPurpose, claims.Purpose, expected)
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("%w: bad subject: %v", model.ErrTokenSignature, err)
	}

	switch expected {
	case model.PurposeAccess, model.PurposeRefresh:
		if claims.Identity == nil || claims.Identity.ID != subject {
			return model.TokenClaims{}, fmt.Errorf("%w: identity payload missing", model.ErrTokenPurpose)
		}
	case model.PurposeResetPassword, model.PurposeActivateAccount:
		if claims.Username == "" || claims.Identity != nil {
			return model.TokenClaims{}, fmt.Errorf("%w: username payload missing", model.ErrTokenPurpose)
		}
	default:
		return model.TokenClaims{}, fmt.Errorf("%w: unknown purpose %s", model.ErrTokenPurpose, expected)
	}

	result := model.TokenClaims{
		ID:       claims.ID,
		Subject:  subject,
		Purpose:  claims.Purpose,
		Issuer:   claims.Issuer,
		Identity: claims.Identity,
		Username: claims.Username,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}
