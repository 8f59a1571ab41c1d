package services

import (
	"errors"
	"strings"
	"time"

	"hostly/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrAuthDisabled = errors.New("auth secret not configured")
)

// Claims mirrors the access tokens issued by the hosted auth provider: the
// subject is the user uuid.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenInfo struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
}

type AuthService struct {
	secret []byte
	issuer string
	log    logger.Logger
}

func NewAuthService(cfg config.Config) *AuthService {
	return &AuthService{
		secret: []byte(cfg.AuthJWTSecret),
		issuer: cfg.AuthJWTIssuer,
		log:    logger.New("AuthService"),
	}
}

// ValidateToken verifies an HS256 bearer token and returns its subject.
func (s *AuthService) ValidateToken(raw string) (*TokenInfo, error) {
	log := s.log.Function("ValidateToken")

	if len(s.secret) == 0 {
		return nil, ErrAuthDisabled
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		log.Debug("token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		log.Debug("token subject is not a user id", "subject", claims.Subject)
		return nil, ErrInvalidToken
	}

	info := &TokenInfo{
		UserID: userID,
		Email:  strings.ToLower(strings.TrimSpace(claims.Email)),
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// IssueToken signs a token for userID. It backs local development and tests;
// production tokens come from the auth provider.
func (s *AuthService) IssueToken(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	log := s.log.Function("IssueToken")

	if len(s.secret) == 0 {
		return "", ErrAuthDisabled
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign token", err, "userID", userID)
	}
	return signed, nil
}
