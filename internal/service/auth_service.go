package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/repository"
	"github.com/diagnosis/tourhub/internal/utils"
	"github.com/diagnosis/tourhub/pkg/auth"
	"github.com/diagnosis/tourhub/pkg/config"
	"github.com/diagnosis/tourhub/pkg/events"
	"github.com/diagnosis/tourhub/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResult, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error)
	Logout(ctx context.Context, userID int64) error
	// Authenticate resolves a storefront token to its user. The token must
	// verify and match the one stored on the user row.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd *domain.ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, req *domain.PasswordChange) (string, error)

	ListUsers(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	SetUserStatus(ctx context.Context, id int64, status string) error
	DeleteUser(ctx context.Context, id int64) error
}

type authService struct {
	users    repository.UserRepository
	carts    repository.CartRepository
	tokens   *auth.Issuer
	eventBus events.Publisher
	limiter  Limiter
	limits   config.RateLimitConfig
}

func NewAuthService(
	users repository.UserRepository,
	carts repository.CartRepository,
	tokens *auth.Issuer,
	eventBus events.Publisher,
	limiter Limiter,
	limits config.RateLimitConfig,
) AuthService {
	return &authService{
		users:    users,
		carts:    carts,
		tokens:   tokens,
		eventBus: eventBus,
		limiter:  limiter,
		limits:   limits,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResult, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Phone = utils.NormalizePhone(req.Phone)

	switch {
	case req.FullName == "":
		return nil, domain.Invalid("fullName is required")
	case !utils.IsValidEmail(req.Email):
		return nil, domain.Invalid("email is invalid")
	case len(req.Password) < domain.MinPasswordLength:
		return nil, domain.Invalid("password must be at least %d characters", domain.MinPasswordLength)
	case !utils.IsValidPhone(req.Phone):
		return nil, domain.Invalid("phone is invalid")
	}

	existing, err := s.users.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	event := events.UserRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.UserRegistered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return &domain.LoginResult{Token: token}, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, domain.Invalid("email and password are required")
	}

	if err := s.checkAttempts(ctx, "login:user:"+req.Email); err != nil {
		return nil, err
	}

	user, err := s.users.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		loginAttempts.WithLabelValues(auth.KindUser, "invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !user.CanLogin() {
		loginAttempts.WithLabelValues(auth.KindUser, "locked").Inc()
		return nil, domain.ErrAccountLocked
	}

	token := user.Token
	if _, err := s.tokens.Parse(token, auth.KindUser); err != nil {
		if token, err = s.issue(ctx, user); err != nil {
			return nil, err
		}
	}

	cart, err := s.carts.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	loginAttempts.WithLabelValues(auth.KindUser, "ok").Inc()
	return &domain.LoginResult{Token: token, CartID: cart.ID}, nil
}

// checkAttempts enforces the per-email login budget. Limiter errors let the
// attempt through.
func (s *authService) checkAttempts(ctx context.Context, key string) error {
	if s.limiter == nil || s.limits.LoginRequests <= 0 {
		return nil
	}
	ok, _, err := s.limiter.Allow(ctx, key, s.limits.LoginRequests, s.limits.LoginWindow)
	if err != nil {
		logger.WarnContext(ctx, "Login limiter unavailable", "error", err)
		return nil
	}
	if !ok {
		loginAttempts.WithLabelValues(auth.KindUser, "throttled").Inc()
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *authService) issue(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.tokens.Issue(auth.KindUser, user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.users.SetToken(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.SetToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token, auth.KindUser)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	id, err := claims.SubjectID()
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.CanLogin() || user.Token != token {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *authService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.GetUser(ctx, userID)
}

func (s *authService) UpdateProfile(ctx context.Context, userID int64, upd *domain.ProfileUpdate) (*domain.User, error) {
	if upd.FullName != nil {
		v := strings.TrimSpace(*upd.FullName)
		if v == "" {
			return nil, domain.Invalid("fullName must not be empty")
		}
		upd.FullName = &v
	}
	if upd.Phone != nil {
		v := utils.NormalizePhone(*upd.Phone)
		if !utils.IsValidPhone(v) {
			return nil, domain.Invalid("phone is invalid")
		}
		upd.Phone = &v
	}

	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// returns a fresh token; the previous token stops working.
func (s *authService) ChangePassword(ctx context.Context, userID int64, req *domain.PasswordChange) (string, error) {
	if len(req.NewPassword) < domain.MinPasswordLength {
		return "", domain.Invalid("password must be at least %d characters", domain.MinPasswordLength)
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	token, err := s.tokens.Issue(auth.KindUser, user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, token); err != nil {
		return "", fmt.Errorf("failed to update password: %w", err)
	}
	return token, nil
}

func (s *authService) ListUsers(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error) {
	f.Limit, f.Offset = pageOrDefault(f.Limit, f.Offset)
	f.Keyword = strings.TrimSpace(f.Keyword)
	return s.users.List(ctx, f)
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *authService) SetUserStatus(ctx context.Context, id int64, status string) error {
	st, ok := domain.ParseUserStatus(status)
	if !ok {
		return domain.Invalid("status must be active or inactive")
	}
	return s.users.SetStatus(ctx, id, st)
}

func (s *authService) DeleteUser(ctx context.Context, id int64) error {
	return s.users.SoftDelete(ctx, id)
}
