package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

// Operator is a configured account that may obtain access tokens.
type Operator struct {
	Email        string
	Role         models.UserRole
	PasswordHash string
}

// AuthService exchanges operator credentials for access tokens.
type AuthService struct {
	tokens    *TokenService
	operators map[string]Operator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs AuthService. Operator emails are matched case-insensitively.
func NewAuthService(tokens *TokenService, operators []Operator, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byEmail := make(map[string]Operator, len(operators))
	for _, op := range operators {
		byEmail[strings.ToLower(op.Email)] = op
	}
	return &AuthService{tokens: tokens, operators: byEmail, validator: validate, logger: logger}
}

// HashPassword returns a bcrypt hash suitable for AUTH_OPERATORS.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifies the password against the operator's bcrypt hash and issues a token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	op, ok := s.operators[req.Email]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("operator login rejected", zap.String("email", req.Email))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, expiresAt, err := s.tokens.IssueToken(op.Email, op.Role, op.Email, op.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("operator token issued", zap.String("email", op.Email), zap.String("role", string(op.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.config.Expiry.Seconds()),
		ExpiresAt:   expiresAt,
		Role:        op.Role,
	}, nil
}
