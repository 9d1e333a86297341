package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"quickpoll/config"
	"quickpoll/internal/domain/user"
	"quickpoll/internal/repository"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.issueToken(*newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return AuthResponse{}, quickpoll_errors.ErrUnauthorized
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return AuthResponse{}, quickpoll_errors.ErrUnauthorized
	}

	return s.issueToken(u)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (UserInfo, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return UserInfo{}, err
	}
	return toUserInfo(u), nil
}

// ParseAccessToken validates a bearer token and returns its claims.
func (s *AuthService) ParseAccessToken(token string) (*AccessClaims, error) {
	if token == "" {
		return nil, quickpoll_errors.ErrUnauthorized
	}

	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, quickpoll_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, quickpoll_errors.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issueToken(u user.User) (AuthResponse, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: u.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        toUserInfo(u),
	}, nil
}

func validateRegister(in RegisterInput) error {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return quickpoll_errors.ErrInvalidInput
	}
	if len(in.Password) < 8 {
		return quickpoll_errors.ErrInvalidInput
	}
	if len(strings.TrimSpace(in.DisplayName)) < 2 {
		return quickpoll_errors.ErrInvalidInput
	}
	return nil
}

func toUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
}

// HTTPStatus maps service errors to HTTP status codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, quickpoll_errors.ErrInvalidInput):
		return 400
	case errors.Is(err, quickpoll_errors.ErrUnauthorized),
		errors.Is(err, quickpoll_errors.ErrAuthRequired),
		errors.Is(err, quickpoll_errors.ErrIdentityUnresolved):
		return 401
	case errors.Is(err, quickpoll_errors.ErrForbidden):
		return 403
	case errors.Is(err, quickpoll_errors.ErrNotFound):
		return 404
	case errors.Is(err, quickpoll_errors.ErrAlreadyExists),
		errors.Is(err, quickpoll_errors.ErrAlreadyVoted),
		errors.Is(err, quickpoll_errors.ErrPollClosed),
		errors.Is(err, quickpoll_errors.ErrChoiceLimitReached):
		return 409
	case errors.Is(err, quickpoll_errors.ErrRateLimited):
		return 429
	case errors.Is(err, quickpoll_errors.ErrUploadsDisabled):
		return 503
	default:
		return 500
	}
}
