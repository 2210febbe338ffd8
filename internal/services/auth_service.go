package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/pkg/utils"
)

const minPasswordLength = 6

// RegisterCustomerRequest DTO
type RegisterCustomerRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
}

// ChangePasswordRequest DTO
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// AuthResponse DTO
type AuthResponse struct {
	Actor        models.Actor        `json:"actor"`
	Customer     *models.Customer    `json:"customer,omitempty"`
	Staff        *models.StaffMember `json:"staff,omitempty"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
}

// AuthService issues tokens for customers and staff.
type AuthService interface {
	RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*AuthResponse, error)
	LoginCustomer(ctx context.Context, creds models.Credentials) (*AuthResponse, error)
	LoginStaff(ctx context.Context, creds models.Credentials) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Me(ctx context.Context, actor models.Actor) (*models.Profile, error)
	ChangePassword(ctx context.Context, actor models.Actor, req ChangePasswordRequest) error
}

type authService struct {
	authRepo     repositories.AuthRepository
	customerRepo repositories.CustomerRepository
	staffRepo    repositories.StaffRepository
	db           repositories.SQLExecutor
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, customerRepo repositories.CustomerRepository, staffRepo repositories.StaffRepository, db repositories.SQLExecutor) AuthService {
	return &authService{authRepo: authRepo, customerRepo: customerRepo, staffRepo: staffRepo, db: db}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func issueTokens(actor models.Actor) (*AuthResponse, error) {
	access, err := utils.GenerateAccessToken(actor.ID, string(actor.Kind), actor.Username, string(actor.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := utils.GenerateRefreshToken(actor.ID, string(actor.Kind))
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{Actor: actor, AccessToken: access, RefreshToken: refresh}, nil
}

func customerActor(c *models.Customer) models.Actor {
	username := c.FullName
	if c.Email != nil {
		username = *c.Email
	}
	return models.Actor{Kind: models.PrincipalCustomer, ID: c.ID, Role: models.RoleCustomer, Username: username}
}

func staffActor(s *models.StaffMember) models.Actor {
	return models.Actor{Kind: models.PrincipalStaff, ID: s.ID, Role: s.Role, Username: s.Username}
}

// RegisterCustomer creates a customer account and logs it in.
func (s *authService) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.PhoneNumber)
	if utils.IsEmpty(req.FullName) || !utils.IsValidEmail(email) || phone == "" {
		return nil, validationf("name, a valid email and a phone number are required")
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return nil, validationf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	c := &models.Customer{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        &email,
		PhoneNumber:  &phone,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.customerRepo.CreateCustomer(ctx, s.db, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to register customer: %w", err)
	}
	resp, err := issueTokens(customerActor(c))
	if err != nil {
		return nil, err
	}
	resp.Customer = c
	return resp, nil
}

// LoginCustomer authenticates with email or phone number.
func (s *authService) LoginCustomer(ctx context.Context, creds models.Credentials) (*AuthResponse, error) {
	c, err := s.authRepo.FindCustomerByLogin(ctx, creds.Login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(creds.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !c.IsActive {
		return nil, ErrAccountInactive
	}
	resp, err := issueTokens(customerActor(c))
	if err != nil {
		return nil, err
	}
	resp.Customer = c
	return resp, nil
}

// LoginStaff authenticates a staff member by username.
func (s *authService) LoginStaff(ctx context.Context, creds models.Credentials) (*AuthResponse, error) {
	st, err := s.authRepo.FindStaffByUsername(ctx, creds.Login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(creds.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !st.IsActive {
		return nil, ErrAccountInactive
	}
	resp, err := issueTokens(staffActor(st))
	if err != nil {
		return nil, err
	}
	resp.Staff = st
	return resp, nil
}

// RefreshToken reloads the account so role changes and deactivation take effect.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	switch models.PrincipalKind(claims.Kind) {
	case models.PrincipalCustomer:
		c, err := s.customerRepo.GetCustomerByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
		if !c.IsActive {
			return nil, ErrAccountInactive
		}
		resp, err := issueTokens(customerActor(c))
		if err != nil {
			return nil, err
		}
		resp.Customer = c
		return resp, nil
	case models.PrincipalStaff:
		st, err := s.staffRepo.GetStaffByID(ctx, nil, claims.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
		if !st.IsActive {
			return nil, ErrAccountInactive
		}
		resp, err := issueTokens(staffActor(st))
		if err != nil {
			return nil, err
		}
		resp.Staff = st
		return resp, nil
	}
	return nil, ErrInvalidToken
}

func (s *authService) Me(ctx context.Context, actor models.Actor) (*models.Profile, error) {
	p := &models.Profile{Actor: actor}
	if actor.IsCustomer() {
		c, err := s.customerRepo.GetCustomerByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, err
		}
		p.Customer = c
		return p, nil
	}
	st, err := s.staffRepo.GetStaffByID(ctx, nil, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	p.Staff = st
	return p, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor models.Actor, req ChangePasswordRequest) error {
	if !utils.IsValidPasswordLength(req.NewPassword, minPasswordLength) {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	profile, err := s.Me(ctx, actor)
	if err != nil {
		return err
	}
	current := ""
	if profile.Customer != nil {
		current = profile.Customer.PasswordHash
	} else if profile.Staff != nil {
		current = profile.Staff.PasswordHash
	}
	if bcrypt.CompareHashAndPassword([]byte(current), []byte(req.OldPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.authRepo.UpdatePasswordHash(ctx, s.db, actor.Kind, actor.ID, hash)
}
