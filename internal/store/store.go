// Package store persists items and users.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/validation"
)

// ErrDuplicateEmail is returned when a user with the same email exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ValidationError is returned when a record fails schema validation before
// it is written.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Violations.Fields(), ", ")
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	// Type restricts results to lost or found items.
	Type string
	// Query matches a case-insensitive substring of title or description.
	Query string
	// Limit caps the number of results; 0 returns all matches.
	Limit int
}

// ProfileUpdate holds the user profile fields to change. Nil fields are
// left as they are.
type ProfileUpdate struct {
	Name         *string
	PhoneNumber  *string
	Address      *string
	City         *string
	Bio          *string
	ProfileImage *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Address == nil &&
		p.City == nil && p.Bio == nil && p.ProfileImage == nil
}

// Store is the persistence boundary for items and users. Lookups return
// (nil, nil) when no record matches.
type Store interface {
	// CreateItem assigns an id and timestamps to item and stores it.
	CreateItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	// ListItems returns matching items, newest first.
	ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error)
	// DeleteItem removes an item and reports whether it existed.
	DeleteItem(ctx context.Context, id string) (bool, error)
	// SetLoserContact merges the non-empty contact fields onto an item.
	SetLoserContact(ctx context.Context, id, phone, email string) (*model.Item, error)

	// CreateUser assigns an id and timestamps to user and stores it.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*model.User, error)

	Ping(ctx context.Context) error
	Close() error
}

func validateItem(item *model.Item) error {
	if v := item.Validate(); !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

func validateUser(user *model.User) error {
	if v := user.Validate(); !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

// Open opens the store addressed by databaseURL. mongodb:// and
// mongodb+srv:// URLs select MongoDB; sqlite:// URLs and bare paths select
// SQLite.
func Open(ctx context.Context, databaseURL, mongoDatabase string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return OpenMongoStore(ctx, databaseURL, mongoDatabase)
	case databaseURL == "":
		return nil, fmt.Errorf("database url required")
	default:
		return OpenSQLStore(strings.TrimPrefix(databaseURL, "sqlite://"))
	}
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MongoStore)(nil)
)
