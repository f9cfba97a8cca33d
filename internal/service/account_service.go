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
	"github.com/diagnosis/tourhub/pkg/logger"
)

// AccountService manages admin-console accounts and their sessions.
type AccountService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (string, error)
	Logout(ctx context.Context, accountID int64) error
	// Authenticate resolves an admin token to its account and role. The role
	// is nil for accounts without one.
	Authenticate(ctx context.Context, token string) (*domain.Account, *domain.Role, error)
	Me(ctx context.Context, accountID int64) (*domain.AccountProfile, error)

	List(ctx context.Context, f domain.ListFilter) ([]domain.Account, int64, error)
	Get(ctx context.Context, id int64) (*domain.Account, error)
	Create(ctx context.Context, in *domain.AccountInput) (*domain.Account, error)
	Update(ctx context.Context, id int64, in *domain.AccountInput) (*domain.Account, error)
	Delete(ctx context.Context, id int64) error

	// Bootstrap creates an administrator role with every permission and an
	// account for email, unless an active account with that email exists.
	Bootstrap(ctx context.Context, email, password string) error
}

type accountService struct {
	accounts repository.AccountRepository
	roles    repository.RoleRepository
	tokens   *auth.Issuer
}

func NewAccountService(accounts repository.AccountRepository, roles repository.RoleRepository, tokens *auth.Issuer) AccountService {
	return &accountService{accounts: accounts, roles: roles, tokens: tokens}
}

func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (string, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return "", domain.Invalid("email and password are required")
	}

	acc, err := s.accounts.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to find account: %w", err)
	}
	if acc == nil || !auth.CheckPassword(req.Password, acc.PasswordHash) {
		loginAttempts.WithLabelValues(auth.KindAccount, "invalid").Inc()
		return "", domain.ErrInvalidCredentials
	}
	if !acc.CanLogin() {
		loginAttempts.WithLabelValues(auth.KindAccount, "locked").Inc()
		return "", domain.ErrAccountLocked
	}

	token := acc.Token
	if _, err := s.tokens.Parse(token, auth.KindAccount); err != nil {
		token, err = s.tokens.Issue(auth.KindAccount, acc.ID, acc.Email)
		if err != nil {
			return "", fmt.Errorf("failed to issue token: %w", err)
		}
		if err := s.accounts.SetToken(ctx, acc.ID, token); err != nil {
			return "", fmt.Errorf("failed to store token: %w", err)
		}
	}

	loginAttempts.WithLabelValues(auth.KindAccount, "ok").Inc()
	logger.InfoContext(ctx, "Admin login", "account_id", acc.ID)
	return token, nil
}

func (s *accountService) Logout(ctx context.Context, accountID int64) error {
	return s.accounts.SetToken(ctx, accountID, "")
}

func (s *accountService) Authenticate(ctx context.Context, token string) (*domain.Account, *domain.Role, error) {
	if token == "" {
		return nil, nil, domain.ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token, auth.KindAccount)
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}
	id, err := claims.SubjectID()
	if err != nil {
		return nil, nil, domain.ErrUnauthorized
	}

	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acc == nil || !acc.CanLogin() || acc.Token != token {
		return nil, nil, domain.ErrUnauthorized
	}

	role, err := s.roleOf(ctx, acc)
	if err != nil {
		return nil, nil, err
	}
	return acc, role, nil
}

func (s *accountService) roleOf(ctx context.Context, acc *domain.Account) (*domain.Role, error) {
	if acc.RoleID == nil {
		return nil, nil
	}
	role, err := s.roles.FindByID(ctx, *acc.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return role, nil
}

func (s *accountService) Me(ctx context.Context, accountID int64) (*domain.AccountProfile, error) {
	acc, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	role, err := s.roleOf(ctx, acc)
	if err != nil {
		return nil, err
	}
	perms := []string{}
	if role != nil {
		perms = role.Permissions
	}
	return &domain.AccountProfile{Account: acc, Role: role, Permissions: perms}, nil
}

func (s *accountService) List(ctx context.Context, f domain.ListFilter) ([]domain.Account, int64, error) {
	f.Limit, f.Offset = pageOrDefault(f.Limit, f.Offset)
	f.Keyword = strings.TrimSpace(f.Keyword)
	return s.accounts.List(ctx, f)
}

func (s *accountService) Get(ctx context.Context, id int64) (*domain.Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acc == nil {
		return nil, domain.ErrNotFound
	}
	return acc, nil
}

func (s *accountService) validate(ctx context.Context, in *domain.AccountInput, creating bool) error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = utils.NormalizePhone(in.Phone)
	if in.Status == "" {
		in.Status = domain.StatusActive
	}

	switch {
	case in.FullName == "":
		return domain.Invalid("fullName is required")
	case !utils.IsValidEmail(in.Email):
		return domain.Invalid("email is invalid")
	case creating && len(in.Password) < domain.MinPasswordLength,
		!creating && in.Password != "" && len(in.Password) < domain.MinPasswordLength:
		return domain.Invalid("password must be at least %d characters", domain.MinPasswordLength)
	case !utils.IsValidPhone(in.Phone):
		return domain.Invalid("phone is invalid")
	}
	if _, ok := domain.ParseUserStatus(string(in.Status)); !ok {
		return domain.Invalid("status must be active or inactive")
	}

	if in.RoleID != nil {
		role, err := s.roles.FindByID(ctx, *in.RoleID)
		if err != nil {
			return fmt.Errorf("failed to load role: %w", err)
		}
		if role == nil {
			return domain.Invalid("role %d does not exist", *in.RoleID)
		}
	}
	return nil
}

func (s *accountService) Create(ctx context.Context, in *domain.AccountInput) (*domain.Account, error) {
	if err := s.validate(ctx, in, true); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, &domain.Account{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Avatar:       in.Avatar,
		RoleID:       in.RoleID,
		Status:       in.Status,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

func (s *accountService) Update(ctx context.Context, id int64, in *domain.AccountInput) (*domain.Account, error) {
	if err := s.validate(ctx, in, false); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		h, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = h
	}

	acc, err := s.accounts.Update(ctx, &domain.Account{
		ID:           id,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Avatar:       in.Avatar,
		RoleID:       in.RoleID,
		Status:       in.Status,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if acc == nil {
		return nil, domain.ErrNotFound
	}
	return acc, nil
}

func (s *accountService) Delete(ctx context.Context, id int64) error {
	return s.accounts.SoftDelete(ctx, id)
}

func (s *accountService) Bootstrap(ctx context.Context, email, password string) error {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.accounts.FindActiveByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if existing != nil {
		return nil
	}

	role, err := s.roles.Create(ctx, &domain.RoleInput{
		Title:       "Administrator",
		Description: "Full access",
		Permissions: domain.AllPermissions(),
	})
	if err != nil {
		return fmt.Errorf("failed to create administrator role: %w", err)
	}
	acc, err := s.Create(ctx, &domain.AccountInput{
		FullName: "Administrator",
		Email:    email,
		Password: password,
		RoleID:   &role.ID,
	})
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Seeded administrator account", "account_id", acc.ID, "role_id", role.ID)
	return nil
}
