// Package token issues and verifies the signed access tokens that let a
// journal subscriber return to their program.
package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oppajeom/oppajeom/internal/platform/config"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	"github.com/oppajeom/oppajeom/internal/platform/id"
)

const (
	// DefaultIssuer is used when no issuer is configured.
	DefaultIssuer = "oppajeom"
	// Audience scopes tokens to the journal API.
	Audience = "oppajeom-journal"
	// DefaultTTL keeps a token valid for the whole program plus a grace week.
	DefaultTTL = 35 * 24 * time.Hour
)

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer     string        `env:"TOKEN_ISSUER" envDefault:"oppajeom"`
	PrivateKey string        `env:"TOKEN_PRIVATE_KEY"`
	TTL        time.Duration `env:"TOKEN_TTL" envDefault:"840h"`
}

// Config defines how tokens are signed and verified.
type Config struct {
	Issuer     string
	PrivateKey ed25519.PrivateKey
	TTL        time.Duration
	Now        func() time.Time
}

// Claims are the validated contents of an access token.
type Claims struct {
	SubscriptionID string
	Phone          string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	JWTID          string
}

type accessClaims struct {
	jwt.RegisteredClaims
	Phone string `json:"phone"`
}

// LoadConfigFromEnv reads OPPAJEOM_TOKEN_* settings. Without a configured
// key an ephemeral one is generated, so tokens do not survive restarts.
func LoadConfigFromEnv(now func() time.Time) (Config, bool, error) {
	var raw tokenEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, false, fmt.Errorf("parse token env: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	cfg := Config{
		Issuer: strings.TrimSpace(raw.Issuer),
		TTL:    raw.TTL,
		Now:    now,
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	keyValue := strings.TrimSpace(raw.PrivateKey)
	if keyValue == "" {
		_, key, err := ed25519.GenerateKey(nil)
		if err != nil {
			return Config{}, false, fmt.Errorf("generate token key: %w", err)
		}
		cfg.PrivateKey = key
		return cfg, true, nil
	}
	keyBytes, err := decodeBase64(keyValue)
	if err != nil {
		return Config{}, false, fmt.Errorf("decode token private key: %w", err)
	}
	switch len(keyBytes) {
	case ed25519.SeedSize:
		cfg.PrivateKey = ed25519.NewKeyFromSeed(keyBytes)
	case ed25519.PrivateKeySize:
		cfg.PrivateKey = ed25519.PrivateKey(keyBytes)
	default:
		return Config{}, false, fmt.Errorf("token private key must be %d or %d bytes", ed25519.SeedSize, ed25519.PrivateKeySize)
	}
	return cfg, false, nil
}

// Issuer signs and verifies access tokens.
type Issuer struct {
	cfg Config
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("token signing key is not configured")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue signs a token for a subscription.
func (i *Issuer) Issue(subscriptionID, phone string) (string, Claims, error) {
	jti, err := id.NewID()
	if err != nil {
		return "", Claims{}, fmt.Errorf("generate token id: %w", err)
	}
	now := i.cfg.Now().UTC().Truncate(time.Second)
	exp := now.Add(i.cfg.TTL)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   subscriptionID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
		Phone: phone,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(i.cfg.PrivateKey)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, Claims{
		SubscriptionID: subscriptionID,
		Phone:          phone,
		IssuedAt:       now,
		ExpiresAt:      exp,
		JWTID:          jti,
	}, nil
}

// Verify checks a token's signature, issuer, audience and lifetime.
func (i *Issuer) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "access token is required")
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return i.cfg.PrivateKey.Public(), nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != i.cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeUnauthenticated, "token issuer mismatch", map[string]string{"Field": "issuer"})
	}
	if !slices.Contains(parsed.Audience, Audience) {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeUnauthenticated, "token audience mismatch", map[string]string{"Field": "audience"})
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token subject is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token exp is required")
	}
	now := i.cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token not active yet")
	}

	claims := Claims{
		SubscriptionID: parsed.Subject,
		Phone:          parsed.Phone,
		ExpiresAt:      exp,
		JWTID:          parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "token alg is invalid")
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid", err)
}

func decodeBase64(value string) ([]byte, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
