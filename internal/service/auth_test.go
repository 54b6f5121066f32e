package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/auth"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	return &Auth{
		Store:      newTestStore(t),
		Files:      newTestDisk(t),
		Secret:     "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@X.com ", Password: "pw123456"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected token")
	}
	if session.User.Email != "ann@x.com" {
		t.Errorf("email = %q, want normalized", session.User.Email)
	}

	userID, err := svc.Verify(session.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != session.User.ID {
		t.Errorf("token user = %q, want %q", userID, session.User.ID)
	}

	stored, err := svc.Store.GetUserByEmail(ctx, "ann@x.com")
	if err != nil || stored == nil {
		t.Fatalf("GetUserByEmail: %v %v", stored, err)
	}
	if stored.PasswordHash == "pw123456" || !auth.CheckPassword(stored.PasswordHash, "pw123456") {
		t.Error("password not stored as a bcrypt hash")
	}

	login, err := svc.Login(ctx, "ANN@x.com", "pw123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Errorf("login user = %q, want %q", login.User.ID, session.User.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw"})
	wantCode(t, err, apperr.CodeValidation)

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "nope", Password: "pw"})
	wantCode(t, err, apperr.CodeInvalidFormat)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Name: "B", Email: "A@X.COM", Password: "other"})
	wantCode(t, err, apperr.CodeConflict)
}

func TestRegisterWithProfileImage(t *testing.T) {
	svc := newTestAuth(t)
	disk := newTestDisk(t)
	svc.Files = disk
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Name: "A", Email: "a@x.com", Password: "pw",
		ProfileImage: fileHeader(t, "profileImage", "notes.txt", "text/plain", []byte("hi")),
	})
	wantCode(t, err, apperr.CodeInvalidFileType)

	session, err := svc.Register(ctx, RegisterInput{
		Name: "A", Email: "a@x.com", Password: "pw",
		ProfileImage: fileHeader(t, "profileImage", "me.png", "image/png", pngData),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.User.ProfileImage == "" {
		t.Error("expected profile image filename")
	}
	if n := countFiles(t, disk.Dir); n != 1 {
		t.Errorf("expected 1 stored file, got %d", n)
	}
}

func TestRegisterRemovesImageWhenStoreFails(t *testing.T) {
	disk := newTestDisk(t)
	svc := &Auth{Store: failingUsers{newTestStore(t)}, Files: disk, Secret: "s", BcryptCost: bcrypt.MinCost}

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@x.com", Password: "pw",
		ProfileImage: fileHeader(t, "profileImage", "me.png", "image/png", pngData),
	})
	wantCode(t, err, apperr.CodeInternal)
	if n := countFiles(t, disk.Dir); n != 0 {
		t.Errorf("expected orphaned upload removed, found %d files", n)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "right"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, wrongPassword := svc.Login(ctx, "a@x.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "right")
	wantCode(t, wrongPassword, apperr.CodeInvalidCredentials)
	wantCode(t, unknownEmail, apperr.CodeInvalidCredentials)
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}

	_, err := svc.Login(ctx, "", "")
	wantCode(t, err, apperr.CodeValidation)
}

func TestVerify(t *testing.T) {
	svc := newTestAuth(t)

	_, err := svc.Verify("")
	wantCode(t, err, apperr.CodeUnauthenticated)

	_, err = svc.Verify("garbage")
	wantCode(t, err, apperr.CodeInvalidToken)

	other, err := auth.GenerateToken("other-secret", "u1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	_, err = svc.Verify(other)
	wantCode(t, err, apperr.CodeInvalidToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(svc.Secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	_, err = svc.Verify(expired)
	wantCode(t, err, apperr.CodeInvalidToken)
}

func TestMeAndUpdateProfile(t *testing.T) {
	svc := newTestAuth(t)
	disk := newTestDisk(t)
	svc.Files = disk
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{
		Name: "A", Email: "a@x.com", Password: "pw",
		ProfileImage: fileHeader(t, "profileImage", "old.png", "image/png", pngData),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	oldImage := session.User.ProfileImage

	me, err := svc.Me(ctx, session.User.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "a@x.com" {
		t.Errorf("unexpected profile: %+v", me)
	}

	city := " Ljubljana "
	updated, err := svc.UpdateProfile(ctx, session.User.ID, ProfileInput{
		City:         &city,
		ProfileImage: fileHeader(t, "profileImage", "new.png", "image/png", pngData),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.City != "Ljubljana" || updated.Name != "A" {
		t.Errorf("unexpected profile: %+v", updated)
	}
	if updated.ProfileImage == "" || updated.ProfileImage == oldImage {
		t.Errorf("expected new profile image, got %q", updated.ProfileImage)
	}
	if n := countFiles(t, disk.Dir); n != 1 {
		t.Errorf("expected previous image removed, found %d files", n)
	}

	blank := ""
	_, err = svc.UpdateProfile(ctx, session.User.ID, ProfileInput{Name: &blank})
	wantCode(t, err, apperr.CodeValidation)

	_, err = svc.Me(ctx, "00000000-0000-0000-0000-000000000000")
	wantCode(t, err, apperr.CodeNotFound)
}
