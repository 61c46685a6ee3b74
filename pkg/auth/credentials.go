package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore verifies a username/password pair and returns the
// subject's permission set. Implementations must return
// ErrInvalidCredentials for unknown users and wrong passwords alike.
type CredentialStore interface {
	Verify(username, password string) (*Identity, error)
}

// StaticCredentialStore holds a fixed set of accounts with bcrypt-hashed
// passwords. Suitable for demos and tests; production deployments inject
// a different implementation.
type StaticCredentialStore struct {
	mu    sync.RWMutex
	users map[string]staticUser
}

type staticUser struct {
	passwordHash []byte
	permissions  []Permission
}

// NewStaticCredentialStore creates an empty credential store
func NewStaticCredentialStore() *StaticCredentialStore {
	return &StaticCredentialStore{users: make(map[string]staticUser)}
}

// NewDemoCredentialStore returns a store seeded with the demo accounts.
// Seeding hashes fixed constants, which cannot fail.
func NewDemoCredentialStore() *StaticCredentialStore {
	store := NewStaticCredentialStore()
	store.mustAddUser("admin", "admin123", []Permission{PermissionAdmin, PermissionRead, PermissionWrite, PermissionDelete})
	store.mustAddUser("user", "user123", []Permission{PermissionRead, PermissionWrite})
	return store
}

func (s *StaticCredentialStore) mustAddUser(username, password string, permissions []Permission) {
	if err := s.AddUser(username, password, permissions); err != nil {
		panic(err)
	}
}

// AddUser registers an account, hashing the password with bcrypt
func (s *StaticCredentialStore) AddUser(username, password string, permissions []Permission) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = staticUser{
		passwordHash: hash,
		permissions:  permissions,
	}
	return nil
}

// Verify checks the credentials and returns the identity on success
func (s *StaticCredentialStore) Verify(username, password string) (*Identity, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		// Burn a comparison so unknown users take as long as bad passwords
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	permissions := make([]Permission, len(user.permissions))
	copy(permissions, user.permissions)

	return &Identity{
		Username:    username,
		Permissions: permissions,
	}, nil
}
