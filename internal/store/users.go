package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lostfound/lostfound/internal/model"
)

const userColumns = `id, name, email, password_hash, phone_number, address, city, bio,
	profile_image, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber,
		&u.Address, &u.City, &u.Bio, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user. The email is stored normalized.
func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = model.NormalizeEmail(user.Email)
	if err := validateUser(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	ts := now()
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.Name, user.Email, user.PasswordHash, user.PhoneNumber, user.Address,
		user.City, user.Bio, user.ProfileImage, ts, ts,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("creating user: %w", ErrDuplicateEmail)
	}
	if err != nil {
		return checkError("creating user", err)
	}

	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

// GetUser returns a user by ID.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by normalized email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, model.NormalizeEmail(email),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUserProfile updates the non-nil profile fields of a user.
func (s *SQLStore) UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*model.User, error) {
	if update.Empty() {
		return s.GetUser(ctx, id)
	}

	var sets []string
	var args []any
	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	add("name", update.Name)
	add("phone_number", update.PhoneNumber)
	add("address", update.Address)
	add("city", update.City)
	add("bio", update.Bio)
	add("profile_image", update.ProfileImage)
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return nil, checkError("updating user profile", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating user profile: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetUser(ctx, id)
}
