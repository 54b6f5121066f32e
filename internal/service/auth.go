package service

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/auth"
	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/store"
	"github.com/lostfound/lostfound/internal/validation"
)

// invalidCredentials is the single answer for unknown emails and wrong
// passwords alike.
const invalidCredentials = "Invalid credentials"

// dummyHash is compared against when no user matches so that both login
// failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("lostfound-dummy-password", 0)
	if err != nil {
		return ""
	}
	return hash
})

// Auth registers accounts, logs users in and verifies bearer tokens.
type Auth struct {
	Store      store.Store
	Files      FileStore
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Session is returned after a successful register or login.
type Session struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// RegisterInput is an account registration request.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	PhoneNumber  string
	Address      string
	City         string
	Bio          string
	ProfileImage *multipart.FileHeader
}

// ProfileInput holds the profile fields to change. Nil fields are kept.
type ProfileInput struct {
	Name         *string
	PhoneNumber  *string
	Address      *string
	City         *string
	Bio          *string
	ProfileImage *multipart.FileHeader
}

// Register creates an account and issues a token for it.
func (s *Auth) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := model.NormalizeEmail(in.Email)

	if name == "" || email == "" || in.Password == "" {
		fields := map[string]any{"name": nil, "email": nil, "password": nil}
		if name == "" {
			fields["name"] = "Name is required"
		}
		if email == "" {
			fields["email"] = "Email is required"
		}
		if in.Password == "" {
			fields["password"] = "Password is required"
		}
		return nil, apperr.New(apperr.CodeValidation, "Required fields missing").WithDetail("fields", fields)
	}

	if !validation.IsEmail(email) {
		return nil, apperr.New(apperr.CodeInvalidFormat, "Invalid email format").WithDetail("field", "email")
	}

	existing, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeError("Registration failed", err)
	}
	if existing != nil {
		return nil, apperr.New(apperr.CodeConflict, "Email already registered").WithDetail("field", "email")
	}

	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "Registration failed", err)
	}

	var profileImage string
	if in.ProfileImage != nil {
		profileImage, err = s.Files.Save(in.ProfileImage)
		if err != nil {
			return nil, uploadError(err)
		}
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		Bio:          strings.TrimSpace(in.Bio),
		ProfileImage: profileImage,
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		if rmErr := s.Files.Remove(profileImage); rmErr != nil {
			slog.Error("failed to remove orphaned upload", "file", profileImage, "error", rmErr)
		}
		return nil, storeError("Registration failed", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "id", user.ID)
	return session, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.CodeValidation, "email and password required")
	}

	user, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeError("Login failed", err)
	}
	if user == nil {
		auth.CheckPassword(dummyHash(), password)
		slog.Warn("login failed", "email", email)
		return nil, apperr.New(apperr.CodeInvalidCredentials, invalidCredentials)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "email", email)
		return nil, apperr.New(apperr.CodeInvalidCredentials, invalidCredentials)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	slog.Info("user logged in", "id", user.ID)
	return session, nil
}

// Verify validates a bearer token and returns the user id it carries.
func (s *Auth) Verify(token string) (string, error) {
	if token == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "Access denied")
	}
	claims, err := auth.ValidateToken(s.Secret, token)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInvalidToken, "Invalid token", err)
	}
	return claims.UserID, nil
}

// Me returns the profile of the given user.
func (s *Auth) Me(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("failed to get profile", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.CodeNotFound, "User not found")
	}
	pub := user.Public()
	return &pub, nil
}

// UpdateProfile changes the given user's profile fields. A new profile
// image replaces the previous file.
func (s *Auth) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.PublicUser, error) {
	update := store.ProfileUpdate{
		Name:        trimmed(in.Name),
		PhoneNumber: trimmed(in.PhoneNumber),
		Address:     trimmed(in.Address),
		City:        trimmed(in.City),
		Bio:         trimmed(in.Bio),
	}
	if update.Name != nil && *update.Name == "" {
		return nil, apperr.New(apperr.CodeValidation, "Name is required").WithDetail("field", "name")
	}

	current, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("failed to update profile", err)
	}
	if current == nil {
		return nil, apperr.New(apperr.CodeNotFound, "User not found")
	}

	var newImage string
	if in.ProfileImage != nil {
		newImage, err = s.Files.Save(in.ProfileImage)
		if err != nil {
			return nil, uploadError(err)
		}
		update.ProfileImage = &newImage
	}

	user, err := s.Store.UpdateUserProfile(ctx, userID, update)
	if err == nil && user == nil {
		err = apperr.New(apperr.CodeNotFound, "User not found")
	}
	if err != nil {
		if rmErr := s.Files.Remove(newImage); rmErr != nil {
			slog.Error("failed to remove orphaned upload", "file", newImage, "error", rmErr)
		}
		if apperr.Is(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, storeError("failed to update profile", err)
	}

	if newImage != "" && current.ProfileImage != "" {
		if err := s.Files.Remove(current.ProfileImage); err != nil {
			slog.Warn("failed to remove previous profile image", "file", current.ProfileImage, "error", err)
		}
	}

	slog.Info("profile updated", "id", userID)
	pub := user.Public()
	return &pub, nil
}

func (s *Auth) issue(user *model.User) (*Session, error) {
	token, err := auth.GenerateToken(s.Secret, user.ID, s.TokenTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to generate token", err)
	}
	return &Session{Token: token, User: user.Public()}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
