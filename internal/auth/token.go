package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/urlshortcut/urlshortcut/internal/model"
)

// Claims is the payload of an access token.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenConfig is the immutable signing configuration shared by the
// issuer and the verifier.
type TokenConfig struct {
	Issuer    string
	Algorithm string
	Secret    []byte
	TTL       time.Duration
}

// minSecretLen is the minimum HMAC key size per algorithm, in bytes.
var minSecretLen = map[string]int{
	jwt.SigningMethodHS256.Alg(): 32,
	jwt.SigningMethodHS384.Alg(): 48,
	jwt.SigningMethodHS512.Alg(): 64,
}

// Validate checks the algorithm, the secret length, issuer and TTL.
func (c TokenConfig) Validate() error {
	minLen, ok := minSecretLen[c.Algorithm]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, c.Algorithm)
	}
	if len(c.Secret) < minLen {
		return fmt.Errorf("%w: %s needs at least %d bytes, got %d", ErrWeakSecret, c.Algorithm, minLen, len(c.Secret))
	}
	if c.Issuer == "" {
		return errors.New("token issuer must not be empty")
	}
	if c.TTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

// Option customizes an issuer or verifier.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TokenIssuer signs access tokens for verified owners.
type TokenIssuer struct {
	cfg    TokenConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenIssuer creates an issuer after validating cfg.
func NewTokenIssuer(cfg TokenConfig, opts ...Option) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &TokenIssuer{
		cfg:    cfg,
		method: jwt.GetSigningMethod(cfg.Algorithm),
		now:    o.now,
	}, nil
}

// Issue signs a token whose subject is identity.
// iat is truncated to whole seconds and exp is iat plus the configured TTL.
func (i *TokenIssuer) Issue(identity string) (*model.IssuedToken, error) {
	if identity == "" {
		return nil, errors.New("token subject must not be empty")
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.cfg.TTL)

	claims := Claims{
		Scope: model.ScopeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Issuer},
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &model.IssuedToken{
		Identity:  identity,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		Token:     signed,
	}, nil
}

// TokenVerifier validates access tokens. It holds no per-token state.
type TokenVerifier struct {
	cfg    TokenConfig
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenVerifier creates a verifier after validating cfg.
func NewTokenVerifier(cfg TokenConfig, opts ...Option) (*TokenVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &TokenVerifier{
		cfg: cfg,
		// Time-based claims are checked below so that a token stays valid
		// at exactly its expiry second.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{cfg.Algorithm}),
			jwt.WithoutClaimsValidation(),
		),
		now: o.now,
	}, nil
}

// Verify checks signature, issuer, audience, expiry, scope and subject,
// in that order, and returns the authenticated principal.
func (v *TokenVerifier) Verify(tokenString string) (*model.Principal, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Issuer != v.cfg.Issuer {
		return nil, ErrTokenInvalid
	}
	if !slices.Contains(claims.Audience, v.cfg.Issuer) {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	if v.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	if claims.Scope != model.ScopeUser {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return &model.Principal{
		Identity:  claims.Subject,
		Scope:     claims.Scope,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
