package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"testing"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/db"
	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/store"
	"github.com/lostfound/lostfound/internal/upload"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	return store.NewSQLStore(db.NewTestDB(t))
}

func newTestDisk(t *testing.T) *upload.Disk {
	t.Helper()
	d, err := upload.NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	return d
}

// fileHeader builds a parsed multipart file header for an upload.
func fileHeader(t *testing.T, field, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(data)
	mw.Close()

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File[field][0]
}

// countFiles returns the number of entries in dir.
func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("code = %s, want %s (%v)", got, code, err)
	}
}

// failingStore rejects item writes.
type failingStore struct {
	store.Store
}

func (failingStore) CreateItem(context.Context, *model.Item) error {
	return errors.New("disk full")
}

// failingUsers rejects user writes and delegates everything else.
type failingUsers struct {
	store.Store
}

func (failingUsers) CreateUser(context.Context, *model.User) error {
	return errors.New("disk full")
}
