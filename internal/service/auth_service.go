package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and verifies bearer tokens for dashboard users.
type AuthService struct {
	users  UserRepository
	secret []byte
	expire time.Duration
	logger *zap.Logger
}

func NewAuthService(users UserRepository, secret string, expire time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		expire: expire,
		logger: util.GetLogger(),
	}
}

// Register creates an active user and returns a token for it.
func (a *AuthService) Register(ctx context.Context, in *models.RegisterInput) (string, *models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, apperr.Internal(err, "failed to hash password")
	}

	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := a.issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	a.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return token, user, nil
}

// Login verifies credentials and stamps lastLogin.
func (a *AuthService) Login(ctx context.Context, in *models.LoginInput) (string, *models.User, error) {
	user, err := a.users.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return "", nil, apperr.Unauthorized("Invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, apperr.Unauthorized("Invalid credentials")
	}
	if !user.IsActive {
		return "", nil, apperr.Forbidden("Account is deactivated")
	}

	if err := a.users.TouchLastLogin(ctx, user.ID); err != nil {
		a.logger.Warn("Failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		now := time.Now().UTC()
		user.LastLogin = &now
	}

	token, err := a.issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to an active user.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Not authorized to access this route")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}

	user, err := a.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("User account is deactivated")
	}
	return user, nil
}

func (a *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return a.users.GetUserByID(ctx, id)
}

func (a *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return a.users.ListUsers(ctx)
}

func (a *AuthService) issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expire)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", apperr.Internal(err, "failed to sign token")
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
