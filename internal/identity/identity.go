// Package identity manages company credentials: the principal strings
// referenced by holder fields. Token issuance and session management are
// out of scope; this is registration and password verification only.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgertrace/custodia/internal/mirror"
)

// ErrNameTaken is returned when registering a company name that exists.
var ErrNameTaken = errors.New("identity: company name already registered")

// ErrInvalidCredentials is returned for unknown names or wrong passwords.
// The two cases are deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("identity: invalid credentials")

// ErrMissingField is returned when name or password is empty.
var ErrMissingField = errors.New("identity: name and password are required")

// Service registers and authenticates companies against the mirror store.
type Service struct {
	store *mirror.Store
	now   func() time.Time
}

// New creates a Service. now defaults to time.Now when nil.
func New(store *mirror.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Register creates a company with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, password string) (*mirror.Company, error) {
	if name == "" || password == "" {
		return nil, ErrMissingField
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	c := &mirror.Company{
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().Unix(),
	}
	if err := s.store.InsertCompany(ctx, c); err != nil {
		if errors.Is(err, mirror.ErrDuplicateKey) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("register company: %w", err)
	}
	return c, nil
}

// Authenticate verifies a name/password pair.
func (s *Service) Authenticate(ctx context.Context, name, password string) error {
	if name == "" || password == "" {
		return ErrInvalidCredentials
	}

	c, err := s.store.GetCompany(ctx, name)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("authenticate company: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
