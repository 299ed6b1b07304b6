package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shawgichan/lucid/internal/db"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/models"
	"github.com/shawgichan/lucid/internal/token"
	"github.com/shawgichan/lucid/internal/util"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// SessionTracker owns the per-login UI state. Start opens a fresh session for
// username that lasts ttl and End discards it.
type SessionTracker interface {
	Start(username string, ttl time.Duration) uuid.UUID
	End(sessionID uuid.UUID)
}

type AuthService struct {
	store      db.Store
	tokenMaker token.Maker
	sessions   SessionTracker
	config     util.Config
	logger     *applogger.AppLogger
}

func NewAuthService(store db.Store, tokenMaker token.Maker, sessions SessionTracker, config util.Config, logger *applogger.AppLogger) *AuthService {
	return &AuthService{
		store:      store,
		tokenMaker: tokenMaker,
		sessions:   sessions,
		config:     config,
		logger:     logger,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterUserRequest) (*models.LoginUserResponse, error) {
	s.logger.Info("Registering user", "username", req.Username)

	hashedPassword, err := util.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", "username", req.Username, "error", err)
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, req.Username, hashedPassword)
	if err != nil {
		if errors.Is(err, db.ErrUserExists) {
			s.logger.Warn("User registration failed: username taken", "username", req.Username)
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error("Failed to create user", "username", req.Username, "error", err)
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	s.logger.Info("User registered successfully", "userID", user.ID, "username", user.Username)
	return s.startSession(user, "", "")
}

func (s *AuthService) Login(ctx context.Context, req models.LoginUserRequest, userAgent, clientIP string) (*models.LoginUserResponse, error) {
	s.logger.Info("User login attempt", "username", req.Username)
	user, err := s.store.GetUser(ctx, req.Username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Login failed: user not found", "username", req.Username)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to get user", "username", req.Username, "error", err)
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	if err := util.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.logger.Warn("Login failed: invalid password", "username", req.Username)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User login successful", "userID", user.ID, "username", user.Username)
	return s.startSession(user, userAgent, clientIP)
}

func (s *AuthService) startSession(user models.User, userAgent, clientIP string) (*models.LoginUserResponse, error) {
	sessionID := s.sessions.Start(user.Username, s.config.AccessTokenDuration)

	accessToken, accessPayload, err := s.tokenMaker.CreateToken(user.Username, sessionID, s.config.AccessTokenDuration)
	if err != nil {
		s.sessions.End(sessionID)
		s.logger.Error("Failed to create access token", "username", user.Username, "error", err)
		return nil, fmt.Errorf("could not create access token: %w", err)
	}

	s.logger.Debug("Session started", "session_id", sessionID, "user_agent", userAgent, "client_ip", clientIP)
	return &models.LoginUserResponse{
		SessionID:            sessionID,
		AccessToken:          accessToken,
		AccessTokenExpiresAt: accessPayload.ExpiredAt,
		User:                 models.ToUserResponse(user),
	}, nil
}

// Logout drops the session behind payload. Logging out twice is not an error.
func (s *AuthService) Logout(payload *token.Payload) {
	s.sessions.End(payload.SessionID)
	s.logger.Info("User logged out", "username", payload.Username, "session_id", payload.SessionID)
}
