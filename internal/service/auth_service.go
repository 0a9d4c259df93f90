package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

type identityIndex interface {
	Student(id string) (models.Student, bool)
	Professor(id string) (models.Professor, bool)
	Admin(username string) (models.Admin, bool)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService authenticates the three user roles against the mirror and
// issues HS256 access tokens.
type AuthService struct {
	index     identityIndex
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(index identityIndex, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{index: index, validator: validate, logger: logger, config: config}
}

// Login verifies credentials for the requested role and returns a token.
func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	var name, hash string
	switch req.Role {
	case models.RoleStudent:
		student, ok := s.index.Student(req.ID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		name, hash = student.Name, student.PasswordHash
	case models.RoleProfessor:
		professor, ok := s.index.Professor(req.ID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		name, hash = professor.Name, professor.PasswordHash
	case models.RoleAdmin:
		admin, ok := s.index.Admin(req.ID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		name, hash = admin.Name, admin.PasswordHash
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: req.ID,
		Role:   req.Role,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   req.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}

	s.logger.Info("login", zap.String("role", string(req.Role)), zap.String("user", req.ID))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiration.Seconds()),
		IssuedAt:    now,
		User:        models.UserInfo{ID: req.ID, Name: name, Role: req.Role},
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
