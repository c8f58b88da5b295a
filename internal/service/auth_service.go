package service

import (
	"context"
	"errors"
	"strings"

	"boutique-store/internal/model"
	"boutique-store/internal/repository"
	"boutique-store/pkg/jwt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotFound      = errors.New("admin not found")
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	SeedAdmin(ctx context.Context, username, password string) error
	ResetPassword(ctx context.Context, username, newPassword string) error
	ValidateToken(token string) (*jwt.Claims, error)
}

type LoginResponse struct {
	Token string       `json:"token"`
	Admin *model.Admin `json:"admin"`
}

type authService struct {
	admins repository.AdminRepository
	tokens *jwt.Manager
	log    *zap.Logger
}

func NewAuthService(admins repository.AdminRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	return &authService{
		admins: admins,
		tokens: tokens,
		log:    log,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, newValidationError("username and password are required")
	}

	admin, err := s.admins.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !admin.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(admin.ID, admin.Username)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.log.Info("Admin logged in", zap.String("username", admin.Username))
	return &LoginResponse{Token: token, Admin: admin}, nil
}

// SeedAdmin creates the back-office account when no admin exists yet.
func (s *authService) SeedAdmin(ctx context.Context, username, password string) error {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if username == "" || password == "" {
		s.log.Warn("No admin account exists and ADMIN_USERNAME/ADMIN_PASSWORD are not set")
		return nil
	}

	admin := &model.Admin{Username: username}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return err
	}
	s.log.Info("Admin account created", zap.String("username", username))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return newValidationError("new password must be at least 6 characters")
	}
	admin, err := s.admins.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAdminNotFound
	}
	if err != nil {
		return err
	}
	if err := admin.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	return s.admins.Update(ctx, admin)
}

func (s *authService) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokens.ValidateToken(token)
}
