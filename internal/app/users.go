package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"safeher_travel/internal/domain"
)

const defaultRelationship = "Emergency Contact"

var ErrTokensDisabled = errors.New("token signing is not configured")

var validate = validator.New()

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type UserService struct {
	repo   domain.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewUserService(r domain.UserRepository, jwtSecret string, ttl time.Duration) *UserService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UserService{repo: r, secret: []byte(jwtSecret), ttl: ttl, now: time.Now}
}

// bcrypt only hashes the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return domain.User{}, fmt.Errorf("%w: name, email, phone and password are required", domain.ErrInvalidInput)
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return domain.User{}, fmt.Errorf("%w: email", domain.ErrInvalidInput)
	}
	if len(in.Password) > maxPasswordBytes {
		return domain.User{}, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		ID: uuid.NewString(), Name: in.Name, Email: in.Email, Phone: in.Phone,
		PasswordHash: string(hash), CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Login checks credentials and issues a token when a secret is configured.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrUnauthorized
		}
		return domain.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.ErrUnauthorized
	}
	tok, err := s.IssueToken(u.ID)
	if err != nil && !errors.Is(err, ErrTokensDisabled) {
		return domain.User{}, "", err
	}
	return u, tok, nil
}

func (s *UserService) IssueToken(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokensDisabled
	}
	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   userID,
		Issuer:    "safeher",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	return t.SignedString(s.secret)
}

// ParseToken returns the user id of a valid HS256 token.
func (s *UserService) ParseToken(raw string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokensDisabled
	}
	claims := &jwt.StandardClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}

func (s *UserService) Profile(ctx context.Context, id string) (domain.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *UserService) AddContact(ctx context.Context, c domain.EmergencyContact) (domain.EmergencyContact, error) {
	c.UserID = strings.TrimSpace(c.UserID)
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.UserID == "" || c.Name == "" || c.Phone == "" {
		return domain.EmergencyContact{}, fmt.Errorf("%w: user_id, name and phone are required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Relationship) == "" {
		c.Relationship = defaultRelationship
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	if err := s.repo.AddContact(ctx, c); err != nil {
		return domain.EmergencyContact{}, err
	}
	return c, nil
}

func (s *UserService) Contacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	return s.repo.ListContacts(ctx, userID)
}
