package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/apperr"
	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/repos"
	"github.com/keaz/contacts-backend/internal/requestdata"
	"github.com/keaz/contacts-backend/internal/types"
	"github.com/keaz/contacts-backend/internal/utils"
)

type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User, password string) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User, password string) error {
	user.Email = utils.ParseInputString(user.Email)
	if user.Email == "" {
		return fmt.Errorf("an email is required to register: %w", apperr.ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("a password is required to register: %w", apperr.ErrInvalidInput)
	}
	if user.FirstName == "" || user.LastName == "" {
		return fmt.Errorf("a first and last name are required to register: %w", apperr.ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Hash = string(hashed)

	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := as.userRepo.EmailExists(ctx, tx, user.Email)
		if err != nil {
			return fmt.Errorf("failed to check user email: %w", err)
		}
		if exists {
			return fmt.Errorf("email is already in use: %w", apperr.ErrInvalidInput)
		}
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// LoginUser returns a signed access token and a longer-lived refresh
// token. Both carry the subject id, email and role claims.
func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = utils.ParseInputString(email)
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required to login: %w", apperr.ErrUnauthorized)
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", fmt.Errorf("error retrieving user by email: %w", err)
	}
	if user == nil {
		return "", "", fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return "", "", fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	}

	accessToken, err := as.signToken(user, as.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err := as.signToken(user, as.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) signToken(user *types.User, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token: %w", apperr.ErrUnauthorized)
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", apperr.ErrUnauthorized)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", apperr.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", apperr.ErrUnauthorized)
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
		Role:        claims.Role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
