package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/store"
	"github.com/lostfound/lostfound/internal/upload"
	"github.com/lostfound/lostfound/internal/validation"
)

// Items manages lost and found listings.
type Items struct {
	Store store.Store
	Files FileStore
}

// CreateItemInput is a listing submission.
type CreateItemInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Title       string
	Description string
	Location    string
	ItemType    string
	// Date is when the item was lost or found, as RFC 3339 or YYYY-MM-DD.
	Date string
	File        *multipart.FileHeader
}

func (in *CreateItemInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Date = strings.TrimSpace(in.Date)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

// List returns listings matching filter, newest first.
func (s *Items) List(ctx context.Context, filter store.ItemFilter) ([]model.Item, error) {
	if filter.Type != "" {
		t, err := model.ParseItemType(filter.Type)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidArgument, "itemType must be lost or found", err)
		}
		filter.Type = t
	}
	if filter.Limit < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "limit must be positive")
	}

	items, err := s.Store.ListItems(ctx, filter)
	if err != nil {
		return nil, storeError("failed to list items", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Create validates a submission, stores its image and records the listing.
// Nothing is written unless every check passes.
func (s *Items) Create(ctx context.Context, in CreateItemInput) (*model.Item, error) {
	in.trim()

	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("email", in.Email, v)
	validation.Required("phoneno", in.PhoneNumber, v)
	validation.Required("title", in.Title, v)
	validation.Required("description", in.Description, v)
	validation.Required("location", in.Location, v)
	if !v.Empty() {
		missing := map[string]bool{}
		for _, f := range []string{"name", "email", "phoneno", "title", "description", "location"} {
			missing[f] = v[f] != ""
		}
		return nil, apperr.New(apperr.CodeValidation, "All fields are required").WithDetail("missing", missing)
	}

	if !validation.IsEmail(in.Email) {
		return nil, apperr.New(apperr.CodeInvalidFormat, "Invalid email format").WithDetail("field", "email")
	}
	validation.Phone("phoneno", in.PhoneNumber, v)
	if !v.Empty() {
		return nil, apperr.New(apperr.CodeInvalidFormat, "Phone number must be 10 digits").WithDetail("field", "phoneno")
	}

	itemType, err := model.ParseItemType(in.ItemType)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "itemType must be lost or found", err).WithDetail("field", "itemType")
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidFormat, "Invalid date", err).WithDetail("field", "date")
	}

	if in.File == nil {
		return nil, apperr.New(apperr.CodeMissingFile, "Image is required")
	}
	filename, err := s.Files.Save(in.File)
	if err != nil {
		return nil, uploadError(err)
	}

	item := &model.Item{
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		ItemType:    itemType,
		Image:       filename,
		Date:        date,
	}
	if err := s.Store.CreateItem(ctx, item); err != nil {
		if rmErr := s.Files.Remove(filename); rmErr != nil {
			slog.Error("failed to remove orphaned upload", "file", filename, "error", rmErr)
		}
		return nil, storeError("Error creating item", err)
	}

	slog.Info("item created", "id", item.ID, "type", item.ItemType)
	return item, nil
}

// Get returns a listing by id.
func (s *Items) Get(ctx context.Context, id string) (*model.Item, error) {
	if err := checkID(id, "item"); err != nil {
		return nil, err
	}
	item, err := s.Store.GetItem(ctx, id)
	if err != nil {
		return nil, storeError("failed to get item", err)
	}
	if item == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Item not found")
	}
	return item, nil
}

// Delete removes a listing and its image.
func (s *Items) Delete(ctx context.Context, id string) error {
	if err := checkID(id, "item"); err != nil {
		return err
	}
	item, err := s.Store.GetItem(ctx, id)
	if err != nil {
		return storeError("failed to delete item", err)
	}
	if item == nil {
		return apperr.New(apperr.CodeNotFound, "Item not found")
	}

	deleted, err := s.Store.DeleteItem(ctx, id)
	if err != nil {
		return storeError("failed to delete item", err)
	}
	if !deleted {
		return apperr.New(apperr.CodeNotFound, "Item not found")
	}

	if err := s.Files.Remove(item.Image); err != nil {
		slog.Warn("failed to remove item image", "id", id, "file", item.Image, "error", err)
	}
	slog.Info("item deleted", "id", id)
	return nil
}

// AttachLoserContact records how the finder can reach the person who lost
// the item. At least one of phone and email is required.
func (s *Items) AttachLoserContact(ctx context.Context, id, phone, email string) (*model.Item, error) {
	if err := checkID(id, "item"); err != nil {
		return nil, err
	}
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)
	if phone == "" && email == "" {
		return nil, apperr.New(apperr.CodeValidation, "phone or email required")
	}
	if email != "" && !validation.IsEmail(email) {
		return nil, apperr.New(apperr.CodeInvalidFormat, "Invalid email format").WithDetail("field", "email")
	}

	item, err := s.Store.SetLoserContact(ctx, id, phone, email)
	if err != nil {
		return nil, storeError("failed to add loser info", err)
	}
	if item == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Item not found")
	}
	slog.Info("loser contact attached", "id", id)
	return item, nil
}

func uploadError(err error) error {
	if errors.Is(err, upload.ErrInvalidFileType) {
		return apperr.Wrap(apperr.CodeInvalidFileType, "Not an image! Please upload an image.", err)
	}
	return apperr.Wrap(apperr.CodeInternal, "failed to save file", err)
}
