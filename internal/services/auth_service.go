package services

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/boutledger/escrowsettle/internal/models"
	"github.com/boutledger/escrowsettle/internal/repository"
	"github.com/boutledger/escrowsettle/pkg/auth"
)

var (
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService owns registration, login, refresh and logout. Refresh tokens
// are stored hashed (never in plaintext) so a database leak doesn't hand an
// attacker live sessions.
type AuthService struct {
	db           *sql.DB
	users        repository.UserRepository
	refreshTokens repository.RefreshTokenRepository
	jwt          *auth.JWTService
	refreshTTL   time.Duration
}

func NewAuthService(db *sql.DB, users repository.UserRepository, refreshTokens repository.RefreshTokenRepository, jwt *auth.JWTService, refreshTTL time.Duration) *AuthService {
	return &AuthService{db: db, users: users, refreshTokens: refreshTokens, jwt: jwt, refreshTTL: refreshTTL}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RegisterUser creates a new account with a bcrypt-hashed password.
func (s *AuthService) RegisterUser(req *models.UserRegistrationRequest) (*models.User, error) {
	if _, err := s.users.GetByEmail(req.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	user := &models.User{
		ID:    uuid.New(),
		Email: req.Email,
		Role:  req.Role,
	}
	if err := user.HashPassword(req.Password); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.users.Create(tx, user); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginUser verifies credentials and issues a fresh access/refresh pair.
func (s *AuthService) LoginUser(req *models.UserLoginRequest) (*models.AuthTokenResponse, error) {
	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) issueTokenPair(user *models.User) (*models.AuthTokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: time.Now().UTC().Add(s.refreshTTL),
	}
	if err := s.refreshTokens.Create(tx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.AuthTokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

// RefreshToken redeems a live refresh token for a new access/refresh pair and
// revokes the old one (rotation).
func (s *AuthService) RefreshToken(req *models.TokenRefreshRequest) (*models.AuthTokenResponse, error) {
	userID, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	record, err := s.refreshTokens.GetByTokenHash(hashToken(req.RefreshToken))
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if record.UserID != userID || !record.Active(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokens.Revoke(tx, record.ID); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.issueTokenPair(user)
}

// LogoutUser revokes a single refresh token. A token that does not resolve
// to a live record is treated as already logged out, not an error.
func (s *AuthService) LogoutUser(refreshToken string) error {
	record, err := s.refreshTokens.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.refreshTokens.Revoke(tx, record.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// ValidateAccessToken is a thin pass-through used by the HTTP middleware.
func (s *AuthService) ValidateAccessToken(token string) (*auth.JWTClaims, error) {
	return s.jwt.ValidateAccessToken(token)
}
