package service

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"marcel.works/nookstube-go/app/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountExists      = errors.New("an account with that email already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type account struct {
	id           string
	passwordHash []byte
}

type authClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies the bearer tokens that gate every
// mutating command. Accounts live in memory; only the identity carried by a
// verified token matters to the sync protocol.
type AuthService struct {
	secret []byte

	mu       sync.Mutex
	accounts map[string]account
}

func (s *AuthService) Connect() error {
	secret := os.Getenv("NOOKSTUBE_AUTH_SECRET")
	if secret == "" {
		secret = "nookstube-dev-secret"
	}
	s.secret = []byte(secret)
	s.accounts = make(map[string]account)
	return nil
}

func (s *AuthService) CreateAccount(email string, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if _, ok := s.accounts[email]; ok {
		s.mu.Unlock()
		return "", ErrAccountExists
	}
	acc := account{id: uuid.NewString(), passwordHash: hash}
	s.accounts[email] = acc
	s.mu.Unlock()
	return s.issue(model.User{Id: acc.id, Email: email})
}

func (s *AuthService) Login(email string, password string) (string, error) {
	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.issue(model.User{Id: acc.id, Email: email})
}

// Logout is client-side token disposal; there is no server state to clear.
func (s *AuthService) Logout() {}

// Verify returns the participant identity carried by token.
func (s *AuthService) Verify(token string) (model.User, error) {
	var claims authClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.User{}, ErrInvalidToken
	}
	return model.User{Id: claims.Subject, Email: claims.Email}, nil
}

func (s *AuthService) issue(user model.User) (string, error) {
	claims := authClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Id,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
