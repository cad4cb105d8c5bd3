package database

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// User is one staff account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`

	passwordHash string
}

// CreateUser stores a staff account with a bcrypt password hash.
func (db *DB) CreateUser(ctx context.Context, username, password, role string) (*User, error) {
	if role == "" {
		role = "staff"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := db.store.Execute(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		username, string(hash), role)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &User{ID: res.LastInsertID, Username: username, Role: role}, nil
}

// GetUserByUsername returns a user, or nil when not found.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row, err := db.store.FetchOne(ctx, "SELECT * FROM users WHERE username = ?", username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	if row == nil {
		return nil, nil
	}
	return userFromRow(row), nil
}

// Authenticate checks a username/password pair. Returns the user on
// success, nil on unknown user or wrong password.
func (db *DB) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}

func userFromRow(row store.Row) *User {
	return &User{
		ID:           rowInt64(row, "id"),
		Username:     rowString(row, "username"),
		Role:         rowString(row, "role"),
		passwordHash: rowString(row, "password_hash"),
	}
}
