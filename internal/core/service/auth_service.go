package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	users     ports.UserRepository
	companies ports.CompanyRepository
	tx        ports.TxManager
	tokens    *TokenIssuer
	log       zerolog.Logger
}

func NewAuthService(users ports.UserRepository, companies ports.CompanyRepository, tx ports.TxManager, tokens *TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, companies: companies, tx: tx, tokens: tokens, log: log}
}

// Register creates a user. Supplying a company name creates that company and
// makes the user its admin; otherwise the user joins an existing active company.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	role := in.Role
	if role == "" {
		role = domain.RoleClient
	}
	if role != domain.RoleAdmin && role != domain.RoleClient {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if in.CompanyID == "" && strings.TrimSpace(in.CompanyName) == "" {
		return nil, fmt.Errorf("%w: companyId or companyName is required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    in.CompanyID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if in.CompanyID == "" {
			company := &domain.Company{
				ID:        uuid.NewString(),
				Name:      strings.TrimSpace(in.CompanyName),
				Plan:      domain.PlanBasic,
				Active:    true,
				CreatedAt: now,
			}
			if err := s.companies.Create(ctx, company); err != nil {
				return fmt.Errorf("create company: %w", err)
			}
			user.CompanyID = company.ID
			user.Role = domain.RoleAdmin
		} else {
			company, err := s.companies.FindByID(ctx, in.CompanyID)
			if err != nil {
				return err
			}
			if !company.Active {
				return domain.ErrCompanyInactive
			}
		}
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("company_id", user.CompanyID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
