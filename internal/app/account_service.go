package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nf-quiz-service/internal/auth"
	"nf-quiz-service/internal/domain"
	"nf-quiz-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountStore persists students and lecturers.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc domain.Account) error
	AccountByEmail(ctx context.Context, role domain.Role, email string) (domain.Account, error)
	AccountByID(ctx context.Context, role domain.Role, id string) (domain.Account, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(acc domain.Account) (string, time.Time, error)
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role" validate:"omitempty,oneof=student lecturer"`
}

// Session is what a successful login returns.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Account   domain.Account `json:"account"`
}

type AccountService struct {
	store  AccountStore
	tokens TokenIssuer
	log    *zap.Logger
	now    func() time.Time
}

func NewAccountService(store AccountStore, tokens TokenIssuer, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{store: store, tokens: tokens, log: log, now: time.Now}
}

// Register creates a student account. Lecturers are only created by operators.
func (s *AccountService) Register(ctx context.Context, reg Registration) (domain.Account, error) {
	return s.RegisterAs(ctx, reg, domain.RoleStudent)
}

func (s *AccountService) RegisterAs(ctx context.Context, reg Registration, role domain.Role) (domain.Account, error) {
	if err := validator.ValidateStruct(reg); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if role != domain.RoleStudent && role != domain.RoleLecturer {
		return domain.Account{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return domain.Account{}, err
	}
	acc := domain.Account{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(reg.Name),
		Email:        normalizeEmail(reg.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return domain.Account{}, err
	}
	s.log.Info("account registered", zap.String("account_id", acc.ID), zap.String("role", string(acc.Role)))
	return acc, nil
}

// Login checks credentials and returns a signed token. Without a role, students are tried
// before lecturers.
func (s *AccountService) Login(ctx context.Context, cred Credentials) (Session, error) {
	if err := validator.ValidateStruct(cred); err != nil {
		return Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	roles := []domain.Role{domain.RoleStudent, domain.RoleLecturer}
	if cred.Role != "" {
		roles = []domain.Role{cred.Role}
	}
	email := normalizeEmail(cred.Email)
	for _, role := range roles {
		acc, err := s.store.AccountByEmail(ctx, role, email)
		if errors.Is(err, domain.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return Session{}, err
		}
		if !auth.CheckPassword(acc.PasswordHash, cred.Password) {
			break
		}
		token, expires, err := s.tokens.Issue(acc)
		if err != nil {
			return Session{}, err
		}
		return Session{Token: token, ExpiresAt: expires, Account: acc}, nil
	}
	s.log.Info("login rejected", zap.String("email", email))
	return Session{}, domain.ErrInvalidCredentials
}

// Account loads the account behind a verified token.
func (s *AccountService) Account(ctx context.Context, role domain.Role, id string) (domain.Account, error) {
	return s.store.AccountByID(ctx, role, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
