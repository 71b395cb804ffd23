// Package auth issues and validates the HS256 bearer tokens that guard
// the API. Tokens are minted by the dev token exchange and carry only the
// user id; there is no session state on the server.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry is how long access tokens are valid. Short enough
// that a leaked token goes stale within a listening session.
const AccessTokenExpiry = 1 * time.Hour

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrBadClientSecret    = errors.New("client secret mismatch")
)

// Claims is the claim set carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the authenticated user's ID.
	UserID string `json:"uid"`
}

// Service handles token minting and validation.
type Service struct {
	signingKey   []byte
	clientSecret string
	issuer       string
	audience     string
}

// Config holds configuration for the auth service.
type Config struct {
	// SigningKey is the secret key used to sign tokens.
	SigningKey string

	// ClientSecret is the shared secret the token exchange requires.
	ClientSecret string

	// Issuer is the issuer claim (e.g. "https://api.soundtrail.app").
	Issuer string

	// Audience is the audience claim (e.g. "soundtrail-api").
	Audience string
}

func NewService(cfg Config) *Service {
	return &Service{
		signingKey:   []byte(cfg.SigningKey),
		clientSecret: cfg.ClientSecret,
		issuer:       cfg.Issuer,
		audience:     cfg.Audience,
	}
}

// ExchangeToken mints an access token for the given user after checking
// the shared client secret.
func (s *Service) ExchangeToken(userID, clientSecret string) (string, time.Time, error) {
	if subtle.ConstantTimeCompare([]byte(clientSecret), []byte(s.clientSecret)) != 1 {
		return "", time.Time{}, ErrBadClientSecret
	}
	return s.generateAccessToken(userID)
}

func (s *Service) generateAccessToken(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
