package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/store"
)

func validInput(t *testing.T) CreateItemInput {
	return CreateItemInput{
		Name:        "A",
		Email:       "a@x.com",
		PhoneNumber: "0123456789",
		Title:       "Wallet",
		Description: "Black leather",
		Location:    "Library",
		ItemType:    "lost",
		File:        fileHeader(t, "file", "w.png", "image/png", pngData),
	}
}

func TestCreateAndGetItem(t *testing.T) {
	disk := newTestDisk(t)
	svc := &Items{Store: newTestStore(t), Files: disk}
	ctx := context.Background()

	item, err := svc.Create(ctx, validInput(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ID == "" || item.Image == "" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.ItemType != model.ItemTypeLost {
		t.Errorf("itemType = %q, want lost", item.ItemType)
	}
	if countFiles(t, disk.Dir) != 1 {
		t.Error("expected stored image")
	}

	got, err := svc.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Wallet" || got.Image != item.Image {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestCreateDefaultsToFound(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	in := validInput(t)
	in.ItemType = ""

	item, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ItemType != model.ItemTypeFound {
		t.Errorf("itemType = %q, want found", item.ItemType)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CreateItemInput)
		code   string
	}{
		{"missing title", func(in *CreateItemInput) { in.Title = "" }, apperr.CodeValidation},
		{"blank location", func(in *CreateItemInput) { in.Location = "   " }, apperr.CodeValidation},
		{"bad email", func(in *CreateItemInput) { in.Email = "not-an-email" }, apperr.CodeInvalidFormat},
		{"short phone", func(in *CreateItemInput) { in.PhoneNumber = "12345" }, apperr.CodeInvalidFormat},
		{"unknown type", func(in *CreateItemInput) { in.ItemType = "stolen" }, apperr.CodeValidation},
		{"no file", func(in *CreateItemInput) { in.File = nil }, apperr.CodeMissingFile},
		{"not an image", func(in *CreateItemInput) {
			in.File = fileHeader(t, "file", "notes.txt", "text/plain", []byte("hello"))
		}, apperr.CodeInvalidFileType},
		// Missing fields are reported before a bad email.
		{"missing beats format", func(in *CreateItemInput) {
			in.Name = ""
			in.Email = "bad"
		}, apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disk := newTestDisk(t)
			st := newTestStore(t)
			svc := &Items{Store: st, Files: disk}

			in := validInput(t)
			tt.modify(&in)
			_, err := svc.Create(context.Background(), in)
			wantCode(t, err, tt.code)

			items, err := st.ListItems(context.Background(), store.ItemFilter{})
			if err != nil {
				t.Fatalf("ListItems: %v", err)
			}
			if len(items) != 0 {
				t.Errorf("expected no items stored, got %d", len(items))
			}
			if n := countFiles(t, disk.Dir); n != 0 {
				t.Errorf("expected no files stored, got %d", n)
			}
		})
	}
}

func TestCreateMissingFieldsDetail(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	in := validInput(t)
	in.PhoneNumber = ""

	_, err := svc.Create(context.Background(), in)
	var e *apperr.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	missing, ok := e.Detail["missing"].(map[string]bool)
	if !ok {
		t.Fatalf("unexpected detail: %#v", e.Detail)
	}
	if !missing["phoneno"] || missing["title"] {
		t.Errorf("unexpected missing map: %v", missing)
	}
}

func TestCreateRemovesFileWhenStoreFails(t *testing.T) {
	disk := newTestDisk(t)
	svc := &Items{Store: failingStore{}, Files: disk}

	_, err := svc.Create(context.Background(), validInput(t))
	wantCode(t, err, apperr.CodeInternal)
	if n := countFiles(t, disk.Dir); n != 0 {
		t.Errorf("expected orphaned upload to be removed, found %d files", n)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	ctx := context.Background()

	for _, c := range []struct{ title, typ string }{
		{"Wallet", "lost"}, {"Umbrella", "found"}, {"Keys", "lost"},
	} {
		in := validInput(t)
		in.Title = c.title
		in.ItemType = c.typ
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create %s: %v", c.title, err)
		}
	}

	all, err := svc.List(ctx, store.ItemFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Title != "Keys" || all[2].Title != "Wallet" {
		t.Errorf("unexpected order: %v", titles(all))
	}

	lost, err := svc.List(ctx, store.ItemFilter{Type: "LOST"})
	if err != nil {
		t.Fatalf("List lost: %v", err)
	}
	if len(lost) != 2 {
		t.Errorf("expected 2 lost items, got %v", titles(lost))
	}

	_, err = svc.List(ctx, store.ItemFilter{Type: "stolen"})
	wantCode(t, err, apperr.CodeInvalidArgument)

	_, err = svc.List(ctx, store.ItemFilter{Limit: -1})
	wantCode(t, err, apperr.CodeInvalidArgument)
}

func TestListEmptyIsNotNil(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	items, err := svc.List(context.Background(), store.ItemFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestGetErrors(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	wantCode(t, err, apperr.CodeInvalidArgument)

	_, err = svc.Get(ctx, "00000000-0000-0000-0000-000000000000")
	wantCode(t, err, apperr.CodeNotFound)
}

func TestDeleteTwice(t *testing.T) {
	disk := newTestDisk(t)
	svc := &Items{Store: newTestStore(t), Files: disk}
	ctx := context.Background()

	item, err := svc.Create(ctx, validInput(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := countFiles(t, disk.Dir); n != 0 {
		t.Errorf("expected image removed, found %d files", n)
	}
	wantCode(t, svc.Delete(ctx, item.ID), apperr.CodeNotFound)

	_, err = svc.Get(ctx, item.ID)
	wantCode(t, err, apperr.CodeNotFound)
}

func TestAttachLoserContact(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	ctx := context.Background()

	item, err := svc.Create(ctx, validInput(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.AttachLoserContact(ctx, item.ID, "", "")
	wantCode(t, err, apperr.CodeValidation)

	_, err = svc.AttachLoserContact(ctx, item.ID, "", "nope")
	wantCode(t, err, apperr.CodeInvalidFormat)

	_, err = svc.AttachLoserContact(ctx, "00000000-0000-0000-0000-000000000000", "0987654321", "")
	wantCode(t, err, apperr.CodeNotFound)

	got, err := svc.AttachLoserContact(ctx, item.ID, "0987654321", "")
	if err != nil {
		t.Fatalf("AttachLoserContact: %v", err)
	}
	if got.LoserPhone != "0987654321" {
		t.Errorf("loserPhone = %q", got.LoserPhone)
	}

	got, err = svc.AttachLoserContact(ctx, item.ID, "", "owner@x.com")
	if err != nil {
		t.Fatalf("AttachLoserContact: %v", err)
	}
	if got.LoserPhone != "0987654321" || got.LoserEmail != "owner@x.com" {
		t.Errorf("expected merged contact, got %q / %q", got.LoserPhone, got.LoserEmail)
	}
}

func titles(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestCreateParsesDate(t *testing.T) {
	svc := &Items{Store: newTestStore(t), Files: newTestDisk(t)}
	ctx := context.Background()

	in := validInput(t)
	in.Date = "2024-03-01"
	item, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.Date == nil || item.Date.Format(time.DateOnly) != "2024-03-01" {
		t.Errorf("unexpected date: %v", item.Date)
	}

	in = validInput(t)
	in.Date = "yesterday"
	_, err = svc.Create(ctx, in)
	wantCode(t, err, apperr.CodeInvalidFormat)
}
