package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/ikkim/bizmarket-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrUserNotFound          = errors.New("user not found")
)

// SignupInput is the account creation form.
type SignupInput struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email,max=254"`
	FullName        string `json:"full_name" validate:"max=150"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// TokenRevoker blacklists access tokens on logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiry time.Duration) error
}

type AuthService interface {
	Signup(input SignupInput) (*model.User, *util.TokenPair, error)
	Login(identifier, password string) (*model.User, *util.TokenPair, error)
	Logout(ctx context.Context, token string) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	revoker       TokenRevoker
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	revoker TokenRevoker,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		revoker:       revoker,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

func (s *authService) Signup(input SignupInput) (*model.User, *util.TokenPair, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	logger.Info("Attempting user signup", map[string]interface{}{
		"username": input.Username,
		"email":    input.Email,
	})

	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}
	if err := util.CheckPasswordStrength(input.Password); err != nil {
		return nil, nil, newFieldError("password", "Ensure this value has at least 8 characters.")
	}

	exists, err := s.userRepo.ExistsByUsername(input.Username)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		logger.Warn("Signup failed: username already exists", map[string]interface{}{
			"username": input.Username,
		})
		return nil, nil, ErrUsernameAlreadyExists
	}

	exists, err = s.userRepo.ExistsByEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		logger.Warn("Signup failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, nil, err
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User signed up successfully", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, tokens, nil
}

// Login accepts either a username or an email as identifier.
func (s *authService) Login(identifier, password string) (*model.User, *util.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	logger.Info("Login attempt", map[string]interface{}{
		"identifier": identifier,
	})

	user, err := s.userRepo.FindByLogin(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"identifier": identifier,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

// Logout blacklists the access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return err
	}
	if s.revoker == nil {
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, token, remaining); err != nil {
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
