package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"investment_portal/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	pinPattern      = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// ErrInvalidCredentials is returned by Authenticate for any unknown email or
// wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashCost is the bcrypt cost for passwords and pins. Tests lower it.
var HashCost = bcrypt.DefaultCost

// Registration is the sign-up form.
type Registration struct {
	Username     string
	Email        string
	Phone        string
	Country      string
	Password     string
	ReferralCode string
}

// Validate checks the sign-up fields.
func (r Registration) Validate() error {
	if !usernamePattern.MatchString(r.Username) {
		return invalid("username", "must be 3-32 letters, digits or underscores")
	}
	if !emailPattern.MatchString(r.Email) {
		return invalid("email", "enter a valid email address")
	}
	if !phonePattern.MatchString(r.Phone) {
		return invalid("phone", "enter a valid phone number")
	}
	if strings.TrimSpace(r.Country) == "" {
		return invalid("country", "select your country")
	}
	if len(r.Password) < 8 {
		return invalid("password", "must be at least 8 characters")
	}
	return nil
}

// Register creates an active user profile with a zero balance.
func (s *Service) Register(ctx context.Context, r Registration) (*domain.Profile, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := domain.Profile{
		Username:     strings.ToLower(r.Username),
		Email:        strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:        r.Phone,
		Country:      strings.TrimSpace(r.Country),
		Password:     string(hash),
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		Balance:      decimal.Zero,
		ReferralCode: newReferralCode(),
	}
	err = s.tx(ctx, func(tx *gorm.DB) error {
		if code := strings.TrimSpace(r.ReferralCode); code != "" {
			var referrer domain.Profile
			if err := tx.Where("referral_code = ?", strings.ToUpper(code)).First(&referrer).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("referral_code", "unknown referral code")
				}
				return fmt.Errorf("lookup referral code: %w", err)
			}
			p.ReferredBy = &referrer.ID
		}
		var taken int64
		if err := tx.Model(&domain.Profile{}).
			Where("username = ? OR email = ?", p.Username, p.Email).
			Count(&taken).Error; err != nil {
			return fmt.Errorf("check existing profile: %w", err)
		}
		if taken > 0 {
			return invalid("username", "username or email already registered")
		}
		if err := tx.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent sign-up
				return invalid("username", "username or email already registered")
			}
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Authenticate checks an email and password pair. Blocked profiles are
// reported with ErrAccountBlocked after the password has been verified.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if p.IsBlocked() {
		return nil, ErrAccountBlocked
	}
	return &p, nil
}

// Profile loads a profile by id.
func (s *Service) Profile(ctx context.Context, id uint) (*domain.Profile, error) {
	p, err := loadProfile(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	p.HasWithdrawPin = p.WithdrawPin != ""
	return p, nil
}

// ProfileByEmail loads a profile by its sign-in email.
func (s *Service) ProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// SetWithdrawPin stores a hashed 4-6 digit withdraw pin.
func (s *Service) SetWithdrawPin(ctx context.Context, userID uint, pin string) error {
	if !pinPattern.MatchString(pin) {
		return invalid("pin", "must be 4-6 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), HashCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", userID).Update("withdraw_pin", string(hash))
	if res.Error != nil {
		return fmt.Errorf("update pin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword replaces a profile's password.
func (s *Service) SetPassword(ctx context.Context, userID uint, password string) error {
	if len(password) < 8 {
		return invalid("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", userID).Update("password", string(hash))
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin creates an admin profile unless one already exists. It reports
// whether a profile was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.Profile, bool, error) {
	var existing domain.Profile
	err := s.db.WithContext(ctx).Where("role = ?", domain.RoleAdmin).Order("id asc").First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}
	p, err := s.Register(ctx, Registration{
		Username: username,
		Email:    email,
		Phone:    "+0000000000",
		Country:  "N/A",
		Password: password,
	})
	if err != nil {
		return nil, false, err
	}
	if err := s.db.WithContext(ctx).Model(p).Update("role", domain.RoleAdmin).Error; err != nil {
		return nil, false, fmt.Errorf("promote admin: %w", err)
	}
	p.Role = domain.RoleAdmin
	return p, true, nil
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
