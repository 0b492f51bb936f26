package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inamate/zoompan/internal/typeid"
)

// Role is what a token holder may do on a stage.
type Role string

const (
	// RoleViewer may watch transforms.
	RoleViewer Role = "viewer"
	// RoleController may also drive gestures and change the layout.
	RoleController Role = "controller"
)

// Allows reports whether r grants at least the required role.
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleViewer:
		return r == RoleViewer || r == RoleController
	case RoleController:
		return r == RoleController
	default:
		return false
	}
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Claims are the stage-scoped claims carried by an access token.
type Claims struct {
	StageID string `json:"stage"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string, ttl time.Duration) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// IssueToken signs a token granting role on stageID.
func (s *Service) IssueToken(stageID string, role Role) (string, error) {
	now := s.now()
	claims := Claims{
		StageID: stageID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        typeid.NewTokenID(),
			Subject:   stageID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.StageID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleViewer && claims.Role != RoleController {
		return nil, fmt.Errorf("unknown role %q: %w", claims.Role, ErrInvalidToken)
	}
	return &claims, nil
}

// Authorize validates tokenString and checks it grants role on stageID.
func (s *Service) Authorize(tokenString, stageID string, role Role) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.StageID != stageID || !claims.Role.Allows(role) {
		return nil, ErrForbidden
	}
	return claims, nil
}
