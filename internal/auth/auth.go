// Package auth implements the service's placeholder login check. Passwords are
// held as bcrypt hashes; the returned token is opaque and is not verified by
// any other endpoint.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const RoleAdmin = "admin"

// Session is the result of a successful login.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type user struct {
	hash []byte
	role string
}

// Directory is an in-memory set of users.
type Directory struct {
	mu    sync.RWMutex
	users map[string]user
	cost  int
}

// NewDirectory returns an empty Directory hashing with bcrypt.DefaultCost.
func NewDirectory() *Directory {
	return &Directory{users: make(map[string]user), cost: bcrypt.DefaultCost}
}

// Add stores username with a bcrypt hash of password. An existing user is
// replaced.
func (d *Directory) Add(username, password, role string) error {
	if username == "" {
		return errors.New("username required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username] = user{hash: hash, role: role}
	return nil
}

// Login checks the credentials and returns a new session.
func (d *Directory) Login(username, password string) (Session, error) {
	d.mu.RLock()
	u, ok := d.users[username]
	d.mu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return Session{Token: uuid.NewString(), Username: username, Role: u.role}, nil
}
