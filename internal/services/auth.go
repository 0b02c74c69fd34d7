package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/users"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/envutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type Credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type AuthService interface {
	Register(dbc dbctx.Context, creds Credentials) (*domain.User, error)
	Login(dbc dbctx.Context, email, password string) (*TokenPair, error)
	Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error)
	Logout(dbc dbctx.Context, refreshToken string) error
	// VerifyAccessToken parses a bearer token and loads the caller.
	VerifyAccessToken(dbc dbctx.Context, tokenString string) (*domain.User, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      users.UserRepo
	userTokenRepo users.UserTokenRepo
	jwtSecret     []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo users.UserRepo,
	userTokenRepo users.UserTokenRepo,
) AuthService {
	secret := envutil.GetEnv("JWT_SECRET_KEY", "", baseLog)
	if secret == "" {
		baseLog.Warn("JWT_SECRET_KEY not set, issued tokens will not survive restarts")
		secret = uuid.NewString()
	}
	return &authService{
		db:            db,
		log:           baseLog.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecret:     []byte(secret),
		accessTTL:     time.Duration(envutil.GetEnvAsInt("JWT_ACCESS_TTL_MINUTES", 15, baseLog)) * time.Minute,
		refreshTTL:    time.Duration(envutil.GetEnvAsInt("JWT_REFRESH_TTL_HOURS", 24*7, baseLog)) * time.Hour,
	}
}

func (as *authService) Register(dbc dbctx.Context, creds Credentials) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation(fmt.Errorf("a valid email is required"))
	}
	if len(creds.Password) < 8 {
		return nil, apierr.Validation(fmt.Errorf("password must be at least 8 characters"))
	}

	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict(fmt.Errorf("email already registered"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    string(hash),
		FirstName:   strings.TrimSpace(creds.FirstName),
		LastName:    strings.TrimSpace(creds.LastName),
		Role:        domain.RoleMember,
		CanDownload: true,
	}
	if _, err := as.userRepo.Create(dbc, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) Login(dbc dbctx.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	return as.issuePair(dbc, user)
}

func (as *authService) Refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, error) {
	row, err := as.userTokenRepo.GetByToken(dbc, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if row == nil || row.ExpiresAt.Before(time.Now()) {
		return nil, apierr.Unauthorized(fmt.Errorf("refresh token invalid or expired"))
	}
	user, err := as.userRepo.GetByID(dbc, row.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("user no longer exists"))
	}

	var pair *TokenPair
	err = as.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := as.userTokenRepo.DeleteByToken(txc, refreshToken); err != nil {
			return err
		}
		pair, err = as.issuePair(txc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(dbc dbctx.Context, refreshToken string) error {
	return as.userTokenRepo.DeleteByToken(dbc, refreshToken)
}

func (as *authService) VerifyAccessToken(dbc dbctx.Context, tokenString string) (*domain.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid access token"))
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid token claims"))
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid token subject"))
	}
	user, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("user no longer exists"))
	}
	return user, nil
}

func (as *authService) issuePair(dbc dbctx.Context, user *domain.User) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(as.accessTTL)
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := uuid.NewString()
	if _, err := as.userTokenRepo.Create(dbc, &domain.UserToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(as.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}
