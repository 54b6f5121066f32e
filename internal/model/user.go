package model

import (
	"strings"
	"time"

	"github.com/lostfound/lostfound/internal/validation"
)

// User is an account used for authentication and item attribution.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	PhoneNumber  string    `json:"phoneNumber" bson:"phoneNumber"`
	Address      string    `json:"address" bson:"address"`
	City         string    `json:"city" bson:"city"`
	Bio          string    `json:"bio" bson:"bio"`
	ProfileImage string    `json:"profileImage" bson:"profileImage"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PublicUser is the projection of a user returned to clients.
type PublicUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

// Public returns the user without credentials.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		Address:      u.Address,
		City:         u.City,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
	}
}

// NormalizeEmail trims and lowercases an email so it can serve as a login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the fields every stored user must carry.
func (u *User) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", u.Name, v)
	validation.Required("email", u.Email, v)
	validation.Required("password", u.PasswordHash, v)
	return v
}
