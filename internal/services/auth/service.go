// Package auth handles merchant registration, login and token
// lifecycle.
package auth

import (
	"errors"
	"log"

	"github.com/mourinha112/zucropay-sub000/internal/models"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Document string `json:"document"`
}

type Service interface {
	Register(input RegisterInput) (*models.Merchant, error)
	Login(email, password string) (*models.Merchant, string, string, error)
	RefreshTokens(refreshToken string) (string, string, error)
	Logout(merchantID uint) error
}

type service struct {
	merchants repositories.MerchantRepository
}

func NewService(merchants repositories.MerchantRepository) Service {
	if merchants == nil {
		panic("merchant repository is required")
	}
	return &service{merchants: merchants}
}

func (s *service) Register(input RegisterInput) (*models.Merchant, error) {
	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if _, err := s.merchants.GetByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	merchant := &models.Merchant{
		Email:    input.Email,
		Password: string(hashed),
		Name:     input.Name,
		Document: input.Document,
		Status:   models.MerchantStatusPending,
		Role:     models.RoleMerchant,
		// Secret for signing outbound webhook deliveries.
		WebhookSecret: uuid.NewString(),
	}
	if err := s.merchants.Create(merchant); err != nil {
		return nil, err
	}
	return merchant, nil
}

func (s *service) Login(email, password string) (*models.Merchant, string, string, error) {
	merchant, err := s.merchants.GetByEmail(email)
	if err != nil {
		log.Printf("login failed: merchant not found for %s", email)
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(merchant.Password), []byte(password)); err != nil {
		log.Printf("login failed: wrong password for merchant %d", merchant.ID)
		return nil, "", "", ErrInvalidCredentials
	}

	role := merchant.Role
	if role == "" {
		role = models.RoleMerchant
	}
	accessToken, refreshToken, err := utils.GenerateTokens(&models.MerchantClaims{
		MerchantID:   merchant.ID,
		Email:        merchant.Email,
		Role:         role,
		TokenVersion: merchant.TokenVersion,
	})
	if err != nil {
		log.Printf("token generation failed: %v", err)
		return nil, "", "", errors.New("error generating tokens")
	}

	return merchant, accessToken, refreshToken, nil
}

func (s *service) RefreshTokens(refreshToken string) (string, string, error) {
	_, claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	merchant, err := s.merchants.GetByID(claims.MerchantID)
	if err != nil {
		return "", "", errors.New("merchant not found")
	}
	if merchant.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("token version mismatch")
	}

	return utils.GenerateTokens(&models.MerchantClaims{
		MerchantID:   merchant.ID,
		Email:        merchant.Email,
		Role:         claims.Role,
		TokenVersion: merchant.TokenVersion,
	})
}

func (s *service) Logout(merchantID uint) error {
	return s.merchants.IncrementTokenVersion(merchantID)
}
