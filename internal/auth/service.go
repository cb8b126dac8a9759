package auth

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/lendingroom/lendingroom/internal/config"
	"github.com/lendingroom/lendingroom/internal/database/users"
	"github.com/lendingroom/lendingroom/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,64}$`)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameInvalid    = errors.New("username must be 2-64 characters, alphanumeric and underscore/hyphen only")
	ErrNameRequired       = errors.New("first and last name are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrResetNotPermitted  = errors.New("only the user themselves or an administrator may reset a password")
)

// registerMutex serializes registrations so two concurrent first-ever
// registrations cannot both claim the administrator flag.
var registerMutex sync.Mutex

// Service handles registration and credential verification.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Register creates a new account. The very first account ever registered
// receives the administrator flag; every later one does not. This is a
// one-time bootstrap, not reconfigurable afterwards.
func (s *Service) Register(username, password, firstName, lastName string) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if firstName == "" || lastName == "" {
		return nil, ErrNameRequired
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	registerMutex.Lock()
	defer registerMutex.Unlock()

	if _, err := s.users.GetByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	count, err := s.users.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Admin:        count == 0,
	}

	if err := s.users.Create(user); err != nil {
		// Unique index on username is the backstop for races past the mutex
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user. A missing user and
// a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

// ResetPassword sets a new password for the target user. Permitted only when
// the actor is an administrator or is the target themselves.
func (s *Service) ResetPassword(actor *entities.User, targetID uint, newPassword string) error {
	if !actor.Admin && actor.ID != targetID {
		return ErrResetNotPermitted
	}

	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePasswordHash(targetID, hash)
}

// GetUserByID retrieves a user for session resolution.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetByID(id)
}

// HasUsers returns true if any account exists.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
